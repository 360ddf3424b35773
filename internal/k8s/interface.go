package k8s

import (
	"context"

	"k8s.io/client-go/kubernetes"
)

// Interface defines the contract for Kubernetes client operations
// This interface allows for easy mocking in tests
type Interface interface {
	// Clientset returns the underlying Kubernetes clientset
	// Used to read the configuration ConfigMap and Secret
	Clientset() kubernetes.Interface

	// Service discovery
	ServicePod(ctx context.Context, namespace, serviceName string) (string, error)

	// Port forwarding operations
	PortForwardService(ctx context.Context, namespace, serviceName string, localPort, remotePort int) (stopChan chan struct{}, readyChan chan struct{}, errChan <-chan error, err error)
}

// Ensure *Client implements Interface
var _ Interface = (*Client)(nil)
