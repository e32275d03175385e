package checks

import (
	"math/rand/v2"
	"strconv"
)

const (
	filenameMin = 100000
	filenameMax = 900000
)

// UploadFilename derives the PDF name shared by the upload and download
// checks: one draw in [100000, 900000) from a generator seeded with seed,
// so every run with the same seed targets the same file.
func UploadFilename(seed int64) string {
	r := rand.New(rand.NewPCG(uint64(seed), 0))
	return strconv.Itoa(filenameMin+r.IntN(filenameMax-filenameMin)) + ".pdf"
}
