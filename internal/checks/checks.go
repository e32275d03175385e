package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/camel-workshop/tester/internal/drugstore"
	"github.com/camel-workshop/tester/internal/kube"
	"github.com/camel-workshop/tester/internal/models"
)

// Names of the checks as they appear in the report, in run order.
const (
	NameCreate     = "test_create_drug"
	NameUpdate     = "test_update_drug"
	NameDisable    = "test_disable_drug"
	NameUpload     = "test_upload_file"
	NamePersistent = "test_persistent_data"
	NameDownload   = "test_download_file"
)

// Names lists every check in run order.
var Names = []string{NameCreate, NameUpdate, NameDisable, NameUpload, NamePersistent, NameDownload}

// ProductNdc is the record every run creates, updates and disables.
const ProductNdc = "69618-010"

var (
	createPayload = drugstore.Drug{ProductNdc: ProductNdc, Price: 561121, Existences: 20, Status: "ACTIVE"}
	updatePayload = drugstore.Drug{ProductNdc: ProductNdc, Price: 512, Existences: 10, Status: "ACTIVE"}
)

// RequiredEnv must be declared by the first container, checked in this order.
var RequiredEnv = []string{"DATABASE_DRIVER", "DATABASE_URL", "DATABASE_USERNAME", "DATABASE_PASSWORD"}

// Target is what a check runs against.
type Target struct {
	Request models.Request
	Store   *drugstore.Client
	Log     *slog.Logger
}

// Check is one pass/fail step of the suite.
type Check interface {
	Name() string
	Run(ctx context.Context, t *Target) Result
}

// Workloads reads workload specs from a cluster session.
type Workloads interface {
	PodTemplate(ctx context.Context, kind, name string) (*corev1.PodTemplateSpec, error)
	Close()
}

// SessionOpener starts a cluster session; the caller closes it.
type SessionOpener func(ctx context.Context, cfg kube.SessionConfig) (Workloads, error)

// OpenKube opens a real cluster session.
func OpenKube(ctx context.Context, cfg kube.SessionConfig) (Workloads, error) {
	s, err := kube.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func statusFailure(op string, code int) Result {
	return Mismatch(fmt.Sprintf("the service %s should respond with 200 success code, response: %d", op, code), "status", 200, code)
}

func requestFailure(op string, err error) Result {
	return Failf("the service %s request failed: %v", op, err)
}

func decodeFailure(op string, err error) Result {
	if errors.Is(err, drugstore.ErrNotObject) || errors.Is(err, drugstore.ErrNotArray) {
		return Failf("the response of %s is %v", op, err)
	}
	return Failf("the response of %s is not valid JSON: %v", op, err)
}

type createDrug struct{}

func (createDrug) Name() string { return NameCreate }

func (createDrug) Run(ctx context.Context, t *Target) Result {
	resp, err := t.Store.Create(ctx, createPayload)
	if err != nil {
		return requestFailure("create", err)
	}
	if resp.Status != 200 {
		return statusFailure("create", resp.Status)
	}
	obj, err := resp.Object()
	if err != nil {
		return decodeFailure("create", err)
	}
	for _, f := range []struct{ key, msg string }{
		{"productNdc", "there should be the identifier"},
		{"genericName", "there should be the generic name field"},
		{"packageDescription", "there should be the package description"},
		{"labelerName", "there should be the labelerName"},
	} {
		if _, ok := obj[f.key]; !ok {
			return Mismatch(f.msg, f.key, "present", "missing")
		}
	}
	return OK()
}

// fetchDrug reads the record back and returns its first element.
func fetchDrug(ctx context.Context, t *Target) (map[string]any, Result) {
	resp, err := t.Store.Get(ctx, ProductNdc)
	if err != nil {
		return nil, requestFailure("get drug", err)
	}
	if resp.Status != 200 {
		return nil, statusFailure("get drug", resp.Status)
	}
	arr, err := resp.Array()
	if err != nil {
		return nil, decodeFailure("get drug", err)
	}
	if len(arr) == 0 {
		return nil, Mismatch("the response must contain one element", "length", 1, 0)
	}
	return arr[0], OK()
}

type updateDrug struct{}

func (updateDrug) Name() string { return NameUpdate }

func (updateDrug) Run(ctx context.Context, t *Target) Result {
	resp, err := t.Store.Update(ctx, updatePayload)
	if err != nil {
		return requestFailure("update", err)
	}
	if resp.Status != 200 {
		return statusFailure("update", resp.Status)
	}
	drug, res := fetchDrug(ctx, t)
	if !res.Passed() {
		return res
	}
	if !numberIs(drug["price"], updatePayload.Price) {
		return Mismatch("the price must be updated", "price", updatePayload.Price, drug["price"])
	}
	if !numberIs(drug["existences"], updatePayload.Existences) {
		return Mismatch("the existence must be updated", "existences", updatePayload.Existences, drug["existences"])
	}
	return OK()
}

func numberIs(v any, want int) bool {
	f, ok := v.(float64)
	return ok && f == float64(want)
}

type disableDrug struct{}

func (disableDrug) Name() string { return NameDisable }

func (disableDrug) Run(ctx context.Context, t *Target) Result {
	resp, err := t.Store.Disable(ctx, ProductNdc)
	if err != nil {
		return requestFailure("disable", err)
	}
	if resp.Status != 200 {
		return statusFailure("disable", resp.Status)
	}
	drug, res := fetchDrug(ctx, t)
	if !res.Passed() {
		return res
	}
	if drug["status"] != "INACTIVE" {
		return Mismatch("the status should be updated to INACTIVE", "status", "INACTIVE", drug["status"])
	}
	return OK()
}

type uploadFile struct {
	path string
	seed int64
}

func (uploadFile) Name() string { return NameUpload }

func (c uploadFile) Run(ctx context.Context, t *Target) Result {
	name := UploadFilename(c.seed)
	t.Log.Info("uploading file", slog.String("file", name))
	data, err := os.ReadFile(c.path)
	if err != nil {
		return Failf("cannot read upload file: %v", err)
	}
	resp, err := t.Store.UploadPDF(ctx, name, data)
	if err != nil {
		return requestFailure("upload file", err)
	}
	if resp.Status != 200 {
		return statusFailure("upload file", resp.Status)
	}
	return OK()
}

type persistentData struct {
	open    SessionOpener
	timeout time.Duration
}

func (persistentData) Name() string { return NamePersistent }

func (c persistentData) Run(ctx context.Context, t *Target) Result {
	req := t.Request
	ws, err := c.open(ctx, kube.SessionConfig{
		APIServer:             req.OpenshiftURL,
		Token:                 req.AccountToken,
		InsecureSkipTLSVerify: true,
		Namespace:             req.OpenshiftProject,
		Timeout:               c.timeout,
	})
	if err != nil {
		return clusterFailure(err)
	}
	defer ws.Close()

	t.Log.Info("inspecting workload", slog.String("server", req.OpenshiftURL), slog.String("project", req.OpenshiftProject), slog.String("workload", req.Workload()))
	pt, err := ws.PodTemplate(ctx, req.AppType, req.Deployment)
	if err != nil {
		var ce *kube.ClusterError
		if errors.As(err, &ce) {
			return clusterFailure(err)
		}
		return Failf("cannot inspect %s: %v", req.Workload(), err)
	}
	if len(pt.Spec.Containers) == 0 {
		return Mismatch("the application should declare at least one container", "containers", 1, 0)
	}
	names := kube.EnvNames(pt.Spec.Containers[0])
	t.Log.Debug("environment variables", slog.Any("names", names))
	for _, want := range RequiredEnv {
		if !slices.Contains(names, want) {
			return Mismatch(fmt.Sprintf("there should be the %s env in application", want), "env", want, "missing")
		}
	}
	t.Log.Debug("volume claims", slog.Any("claims", kube.ClaimNames(pt.Spec)))
	if !kube.FirstVolumeIsPVC(pt.Spec) {
		return Mismatch("there should be a persistent volume claim of type persistentVolumeClaim in application", "volumes[0]", "persistentVolumeClaim", firstVolumeKind(pt.Spec))
	}
	return OK()
}

func clusterFailure(err error) Result {
	return Fail("there was an connection error to Openshift " + err.Error())
}

func firstVolumeKind(spec corev1.PodSpec) string {
	if len(spec.Volumes) == 0 {
		return "none"
	}
	v := spec.Volumes[0].VolumeSource
	switch {
	case v.EmptyDir != nil:
		return "emptyDir"
	case v.ConfigMap != nil:
		return "configMap"
	case v.Secret != nil:
		return "secret"
	case v.HostPath != nil:
		return "hostPath"
	}
	return "other"
}

type downloadFile struct {
	seed int64
}

func (downloadFile) Name() string { return NameDownload }

func (c downloadFile) Run(ctx context.Context, t *Target) Result {
	name := UploadFilename(c.seed)
	t.Log.Info("downloading file", slog.String("file", name))
	resp, err := t.Store.DownloadPDF(ctx, name)
	if err != nil {
		return requestFailure("download pdf", err)
	}
	if resp.Status != 200 {
		return statusFailure("download pdf", resp.Status)
	}
	if len(resp.Body) == 0 {
		return Mismatch("the response must not be empty", "body", "non-empty", "empty")
	}
	return OK()
}
