package k8scm

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderReadsConfigMapData(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "hosts", Namespace: "observability"},
		Data: map[string]string{
			"web-1": "us-east",
			"web-2": "us-west",
		},
	})

	l := NewLoader(client, "observability", "hosts")
	rows, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "us-east", rows["web-1"].String())
}

func TestLoaderParsesStructuredYAMLRow(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "hosts", Namespace: "observability"},
		Data: map[string]string{
			"web-1": "region: us-east\ntier: edge\n",
		},
	})

	l := NewLoader(client, "observability", "hosts")
	rows, err := l.Load(context.Background())
	require.NoError(t, err)

	region, ok := rows["web-1"].Get("region")
	require.True(t, ok)
	assert.Equal(t, "us-east", region.String())
}

func TestLoaderMissingConfigMap(t *testing.T) {
	client := fake.NewSimpleClientset()
	l := NewLoader(client, "observability", "missing")
	_, err := l.Load(context.Background())
	require.Error(t, err)
}
