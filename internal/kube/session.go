package kube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
)

// SessionConfig holds everything needed to talk to one cluster namespace.
type SessionConfig struct {
	APIServer             string
	Token                 string
	InsecureSkipTLSVerify bool
	Namespace             string
	Timeout               time.Duration
}

// ClusterError marks a failure talking to the cluster API, as opposed to a
// workload that was read fine but looks wrong.
type ClusterError struct {
	Op  string
	Err error
}

func (e *ClusterError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ClusterError) Unwrap() error { return e.Err }

// ErrNoPodTemplate is returned for objects without spec.template.
var ErrNoPodTemplate = errors.New("object has no pod template")

// Session is a namespace scoped handle on the cluster. Its lifetime is
// bounded by SessionConfig.Timeout; Close must be called on every path.
type Session struct {
	namespace string
	dyn       dynamic.Interface
	mapper    meta.RESTMapper
	ctx       context.Context
	cancel    context.CancelFunc
	release   func()
}

// Open builds clients for cfg. No request is sent until the first lookup.
func Open(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.APIServer == "" {
		return nil, &ClusterError{Op: "open session", Err: errors.New("api server url is empty")}
	}
	rc := &rest.Config{
		Host:            cfg.APIServer,
		BearerToken:     cfg.Token,
		TLSClientConfig: rest.TLSClientConfig{Insecure: cfg.InsecureSkipTLSVerify},
		Timeout:         cfg.Timeout,
	}
	hc, err := rest.HTTPClientFor(rc)
	if err != nil {
		return nil, &ClusterError{Op: "open session", Err: err}
	}
	dyn, err := dynamic.NewForConfigAndClient(rc, hc)
	if err != nil {
		return nil, &ClusterError{Op: "open session", Err: err}
	}
	disc, err := discovery.NewDiscoveryClientForConfigAndClient(rc, hc)
	if err != nil {
		return nil, &ClusterError{Op: "open session", Err: err}
	}
	cached := memory.NewMemCacheClient(disc)
	mapper := restmapper.NewShortcutExpander(restmapper.NewDeferredDiscoveryRESTMapper(cached), cached, nil)
	return NewSession(ctx, cfg, dyn, mapper, hc.CloseIdleConnections), nil
}

// NewSession wraps existing clients. release, if non-nil, runs on Close.
func NewSession(ctx context.Context, cfg SessionConfig, dyn dynamic.Interface, mapper meta.RESTMapper, release func()) *Session {
	var (
		sctx   context.Context
		cancel context.CancelFunc
	)
	if cfg.Timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	} else {
		sctx, cancel = context.WithCancel(ctx)
	}
	return &Session{namespace: cfg.Namespace, dyn: dyn, mapper: mapper, ctx: sctx, cancel: cancel, release: release}
}

// Close ends the session and drops pooled connections. Safe to call twice.
func (s *Session) Close() {
	s.cancel()
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

// Resolve maps a user supplied kind ("deployment", "dc", "statefulsets", ...)
// to a served resource.
func (s *Session) Resolve(kind string) (schema.GroupVersionResource, error) {
	gvr, err := s.mapper.ResourceFor(schema.GroupVersionResource{Resource: strings.ToLower(kind)})
	if err != nil {
		return schema.GroupVersionResource{}, &ClusterError{Op: "resolve kind " + kind, Err: err}
	}
	return gvr, nil
}

// Get fetches kind/name from the session namespace.
func (s *Session) Get(ctx context.Context, kind, name string) (*unstructured.Unstructured, error) {
	op := fmt.Sprintf("get %s/%s", kind, name)
	if err := s.ctx.Err(); err != nil {
		return nil, &ClusterError{Op: op, Err: err}
	}
	gvr, err := s.Resolve(kind)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.scope(ctx)
	defer cancel()
	obj, err := s.dyn.Resource(gvr).Namespace(s.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, &ClusterError{Op: op, Err: err}
	}
	return obj, nil
}

// PodTemplate returns the pod template of a controller workload. Any kind that
// keeps its template under spec.template works.
func (s *Session) PodTemplate(ctx context.Context, kind, name string) (*corev1.PodTemplateSpec, error) {
	obj, err := s.Get(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	return podTemplateOf(obj)
}

func podTemplateOf(obj *unstructured.Unstructured) (*corev1.PodTemplateSpec, error) {
	raw, found, err := unstructured.NestedMap(obj.Object, "spec", "template")
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", obj.GetKind(), obj.GetName(), err)
	}
	if !found {
		return nil, fmt.Errorf("%s/%s: %w", obj.GetKind(), obj.GetName(), ErrNoPodTemplate)
	}
	var pt corev1.PodTemplateSpec
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(raw, &pt); err != nil {
		return nil, fmt.Errorf("%s/%s: decode pod template: %w", obj.GetKind(), obj.GetName(), err)
	}
	return &pt, nil
}

// scope derives a context that ends with either the caller or the session.
func (s *Session) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
