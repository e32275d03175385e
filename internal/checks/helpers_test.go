package checks

import (
	"io"
	"log/slog"

	corev1 "k8s.io/api/core/v1"

	"github.com/camel-workshop/tester/internal/drugstore"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func storeFor(base string) *drugstore.Client { return drugstore.New(base, nil, discard()) }

func corev1VolumeEmptyDir() corev1.VolumeSource {
	return corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}
}
