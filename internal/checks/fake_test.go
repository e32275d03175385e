package checks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	corev1 "k8s.io/api/core/v1"

	"github.com/camel-workshop/tester/internal/kube"
	"github.com/camel-workshop/tester/internal/models"
)

// drugStore is an in-memory stand-in for the service under test.
type drugStore struct {
	mu     sync.Mutex
	drugs  map[string]map[string]any
	files  map[string][]byte
	served []string

	createStatus  int
	omitField     string
	stuckExist    float64
	emptyDownload bool
}

func newDrugStore(t *testing.T) (*drugStore, *httptest.Server) {
	t.Helper()
	ds := &drugStore{drugs: map[string]map[string]any{}, files: map[string][]byte{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /store/drug/create", ds.create)
	mux.HandleFunc("PUT /store/drug/update", ds.update)
	mux.HandleFunc("GET /store/drug/{ndc}", ds.get)
	mux.HandleFunc("DELETE /store/drug/{ndc}", ds.disable)
	mux.HandleFunc("POST /store/drug/uploadPdf", ds.upload)
	mux.HandleFunc("GET /store/drug/getPdf/{name}", ds.download)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return ds, srv
}

func (ds *drugStore) create(w http.ResponseWriter, r *http.Request) {
	if ds.createStatus != 0 {
		w.WriteHeader(ds.createStatus)
		return
	}
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in["genericName"] = "Ibuprofen"
	in["packageDescription"] = "100 TABLET in 1 BOTTLE"
	in["labelerName"] = "Acme Labs"
	ds.mu.Lock()
	ds.drugs[in["productNdc"].(string)] = in
	ds.mu.Unlock()
	out := map[string]any{}
	for k, v := range in {
		if k != ds.omitField {
			out[k] = v
		}
	}
	json.NewEncoder(w).Encode(out)
}

func (ds *drugStore) update(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	d, ok := ds.drugs[in["productNdc"].(string)]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	d["price"] = in["price"]
	d["existences"] = in["existences"]
	if ds.stuckExist != 0 {
		d["existences"] = ds.stuckExist
	}
	json.NewEncoder(w).Encode(d)
}

func (ds *drugStore) get(w http.ResponseWriter, r *http.Request) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	out := []map[string]any{}
	if d, ok := ds.drugs[r.PathValue("ndc")]; ok {
		out = append(out, d)
	}
	json.NewEncoder(w).Encode(out)
}

func (ds *drugStore) disable(w http.ResponseWriter, r *http.Request) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	d, ok := ds.drugs[r.PathValue("ndc")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	d["status"] = "INACTIVE"
}

func (ds *drugStore) upload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("upload_file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()
	b, _ := io.ReadAll(f)
	ds.mu.Lock()
	ds.files[hdr.Filename] = b
	ds.mu.Unlock()
}

func (ds *drugStore) download(w http.ResponseWriter, r *http.Request) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	name := r.PathValue("name")
	ds.served = append(ds.served, name)
	b, ok := ds.files[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !ds.emptyDownload {
		w.Write(b)
	}
}

// fakeWorkloads serves a fixed pod template.
type fakeWorkloads struct {
	template *corev1.PodTemplateSpec
	err      error
	closed   int
	cfg      kube.SessionConfig
}

func (f *fakeWorkloads) PodTemplate(ctx context.Context, kind, name string) (*corev1.PodTemplateSpec, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.template, nil
}

func (f *fakeWorkloads) Close() { f.closed++ }

func (f *fakeWorkloads) opener() SessionOpener {
	return func(ctx context.Context, cfg kube.SessionConfig) (Workloads, error) {
		f.cfg = cfg
		return f, nil
	}
}

func databaseTemplate(env ...string) *corev1.PodTemplateSpec {
	c := corev1.Container{Name: "app"}
	for _, e := range env {
		c.Env = append(c.Env, corev1.EnvVar{Name: e, Value: "x"})
	}
	return &corev1.PodTemplateSpec{Spec: corev1.PodSpec{
		Containers: []corev1.Container{c},
		Volumes: []corev1.Volume{{
			Name:         "data",
			VolumeSource: corev1.VolumeSource{PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: "drugs"}},
		}},
	}}
}

func samplePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "example.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n%%EOF\n"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func testRequest(baseURL string) models.Request {
	return models.Request{
		BaseURL:          baseURL,
		OpenshiftURL:     "https://api.example.com:6443",
		AccountToken:     "token",
		Deployment:       "camel-workshop",
		AppType:          "deployment",
		OpenshiftProject: "camel",
	}
}
