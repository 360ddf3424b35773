// Package k8s provides the Kubernetes access the CLI needs to reach a search
// cluster running in-cluster: configuration lookup and port-forwarding.
package k8s

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// Client wraps the Kubernetes clientset
type Client struct {
	clientset  kubernetes.Interface
	restConfig *rest.Config
	debug      bool
}

// Clientset returns the underlying Kubernetes clientset
func (c *Client) Clientset() kubernetes.Interface {
	return c.clientset
}

// NewClient creates a new Kubernetes client
func NewClient(kubeconfigPath string, debug bool) (*Client, error) {
	if kubeconfigPath == "" {
		// Use default kubeconfig location
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		kubeconfigPath = filepath.Join(home, ".kube", "config")
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return &Client{
		clientset:  clientset,
		restConfig: config,
		debug:      debug,
	}, nil
}

// NewTestClient wraps an existing clientset, typically a fake one.
// Port-forwarding is unavailable on such a client.
func NewTestClient(clientset kubernetes.Interface) *Client {
	return &Client{
		clientset: clientset,
	}
}

// ServicePod returns the name of a running pod backing serviceName
func (c *Client) ServicePod(ctx context.Context, namespace, serviceName string) (string, error) {
	svc, err := c.clientset.CoreV1().Services(namespace).Get(ctx, serviceName, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get service: %w", err)
	}

	podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: metav1.FormatLabelSelector(&metav1.LabelSelector{
			MatchLabels: svc.Spec.Selector,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list pods: %w", err)
	}

	if len(podList.Items) == 0 {
		return "", fmt.Errorf("no pods found for service %s", serviceName)
	}

	for i := range podList.Items {
		if podList.Items[i].Status.Phase == corev1.PodRunning {
			return podList.Items[i].Name, nil
		}
	}

	return "", fmt.Errorf("no running pods found for service %s", serviceName)
}

// PortForwardService creates a port-forward to a running pod of a Kubernetes service
func (c *Client) PortForwardService(ctx context.Context, namespace, serviceName string, localPort, remotePort int) (chan struct{}, chan struct{}, <-chan error, error) {
	podName, err := c.ServicePod(ctx, namespace, serviceName)
	if err != nil {
		return nil, nil, nil, err
	}
	return c.PortForwardPod(namespace, podName, localPort, remotePort)
}

// PortForwardPod creates a port-forward to a specific pod. The error channel
// receives the forwarder's exit error and is closed when forwarding stops.
func (c *Client) PortForwardPod(namespace, podName string, localPort, remotePort int) (chan struct{}, chan struct{}, <-chan error, error) {
	if c.restConfig == nil {
		return nil, nil, nil, fmt.Errorf("port-forward requires a client built from a kubeconfig")
	}

	path := fmt.Sprintf("/api/v1/namespaces/%s/pods/%s/portforward", namespace, podName)
	u, err := url.Parse(c.restConfig.Host)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to parse host: %w", err)
	}
	u.Path = path

	transport, upgrader, err := spdy.RoundTripperFor(c.restConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create round tripper: %w", err)
	}

	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, u)

	stopChan := make(chan struct{}, 1)
	readyChan := make(chan struct{})

	ports := []string{fmt.Sprintf("%d:%d", localPort, remotePort)}

	// Use discard writers if debug is disabled to suppress port-forward output
	outWriter := io.Discard
	errWriter := io.Discard
	if c.debug {
		outWriter = os.Stdout
		errWriter = os.Stderr
	}

	fw, err := portforward.New(dialer, ports, stopChan, readyChan, outWriter, errWriter)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create port forwarder: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		if err := fw.ForwardPorts(); err != nil {
			if c.debug {
				fmt.Fprintf(os.Stderr, "Port forward error: %v\n", err)
			}
			errChan <- err
		}
	}()

	return stopChan, readyChan, errChan, nil
}
