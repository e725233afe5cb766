// Package k8scm loads enrichment-table rows from a Kubernetes ConfigMap,
// for reference data (feature flags, host inventories, routing tables) that
// already lives in-cluster rather than on the pipeline's local disk.
package k8scm

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/vectordotdev/vector-sub015/internal/event"
)

// Loader reads one ConfigMap's data into a map[key]Value suitable for
// feeding enrichment.Memory.HandleValue, one row per ConfigMap data key.
type Loader struct {
	client    kubernetes.Interface
	Namespace string
	Name      string
}

// NewInClusterLoader builds a Loader using the pod's in-cluster service
// account, the standard client-go bootstrap for workloads running on
// Kubernetes itself.
func NewInClusterLoader(namespace, name string) (*Loader, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("k8scm: in-cluster config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("k8scm: build clientset: %w", err)
	}
	return &Loader{client: clientset, Namespace: namespace, Name: name}, nil
}

// NewLoader builds a Loader against an arbitrary client-go interface,
// letting tests pass a fake clientset.
func NewLoader(client kubernetes.Interface, namespace, name string) *Loader {
	return &Loader{client: client, Namespace: namespace, Name: name}
}

// Load fetches the ConfigMap and returns its data as enrichment row values,
// one entry per ConfigMap key. A key's value is parsed as a YAML mapping
// when it looks like one (operators commonly store a whole row, not just a
// scalar, under one ConfigMap key); anything else is kept as the raw
// string it was.
func (l *Loader) Load(ctx context.Context) (map[string]event.Value, error) {
	cm, err := l.client.CoreV1().ConfigMaps(l.Namespace).Get(ctx, l.Name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("k8scm: get configmap %s/%s: %w", l.Namespace, l.Name, err)
	}
	out := make(map[string]event.Value, len(cm.Data))
	for k, v := range cm.Data {
		out[k] = parseRow(v)
	}
	return out, nil
}

// parseRow attempts to decode raw as a YAML mapping; on any failure, or
// when it decodes to a bare scalar, raw is kept as a plain string value.
func parseRow(raw string) event.Value {
	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(raw), &decoded); err != nil || decoded == nil {
		return event.String(raw)
	}
	return toValue(decoded)
}

func toValue(v any) event.Value {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]event.Value, len(t))
		for k, vv := range t {
			m[k] = toValue(vv)
		}
		return event.Object(m)
	case []any:
		arr := make([]event.Value, len(t))
		for i, vv := range t {
			arr[i] = toValue(vv)
		}
		return event.Array(arr)
	case string:
		return event.String(t)
	case bool:
		return event.Bool(t)
	case int:
		return event.Int(int64(t))
	case int64:
		return event.Int(t)
	case float64:
		return event.Float(t)
	case nil:
		return event.Null()
	default:
		return event.String(fmt.Sprintf("%v", t))
	}
}
