package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestClient_Clientset(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	client := NewTestClient(fakeClient)

	clientset := client.Clientset()
	assert.NotNil(t, clientset)
	assert.Equal(t, fakeClient, clientset)
}

func TestClient_ServicePod(t *testing.T) {
	tests := []struct {
		name          string
		createService bool
		pods          []corev1.Pod
		expectedPod   string
		expectedError string
	}{
		{
			name:          "service not found",
			expectedError: "failed to get service",
		},
		{
			name:          "no pods found",
			createService: true,
			expectedError: "no pods found for service",
		},
		{
			name:          "no running pods",
			createService: true,
			pods: []corev1.Pod{
				createPod("search-0", map[string]string{"app": "search"}, corev1.PodPending),
			},
			expectedError: "no running pods found for service",
		},
		{
			name:          "first running pod wins",
			createService: true,
			pods: []corev1.Pod{
				createPod("search-0", map[string]string{"app": "search"}, corev1.PodPending),
				createPod("search-1", map[string]string{"app": "search"}, corev1.PodRunning),
				createPod("other-0", map[string]string{"app": "other"}, corev1.PodRunning),
			},
			expectedPod: "search-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			fakeClient := fake.NewSimpleClientset()

			if tt.createService {
				svc := &corev1.Service{
					ObjectMeta: metav1.ObjectMeta{
						Name:      "search-svc",
						Namespace: "test-ns",
					},
					Spec: corev1.ServiceSpec{
						Selector: map[string]string{"app": "search"},
					},
				}
				_, err := fakeClient.CoreV1().Services("test-ns").Create(ctx, svc, metav1.CreateOptions{})
				require.NoError(t, err)
			}
			for i := range tt.pods {
				_, err := fakeClient.CoreV1().Pods("test-ns").Create(ctx, &tt.pods[i], metav1.CreateOptions{})
				require.NoError(t, err)
			}

			client := NewTestClient(fakeClient)
			pod, err := client.ServicePod(ctx, "test-ns", "search-svc")

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPod, pod)
		})
	}
}

func TestClient_PortForwardService_ServiceNotFound(t *testing.T) {
	client := NewTestClient(fake.NewSimpleClientset())

	_, _, _, err := client.PortForwardService(context.Background(), "test-ns", "nonexistent-svc", 8080, 9200)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get service")
}

func TestClient_PortForwardPod_WithoutRestConfig(t *testing.T) {
	client := NewTestClient(fake.NewSimpleClientset())

	_, _, _, err := client.PortForwardPod("test-ns", "search-0", 8080, 9200)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires a client built from a kubeconfig")
}

// Helper function to create a pod for testing
func createPod(name string, labels map[string]string, phase corev1.PodPhase) corev1.Pod {
	return corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "test-ns",
			Labels:    labels,
		},
		Status: corev1.PodStatus{
			Phase: phase,
		},
	}
}
