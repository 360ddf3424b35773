package portforward

import (
	"context"
	"fmt"

	"github.com/stackvista/sts-lifecycle/internal/k8s"
	"github.com/stackvista/sts-lifecycle/internal/logger"
)

// Conn contains the channels needed to manage a port-forward connection
type Conn struct {
	StopChan  chan struct{}
	ReadyChan <-chan struct{}
	LocalPort int
}

// Close stops the port-forward
func (c *Conn) Close() {
	if c != nil && c.StopChan != nil {
		close(c.StopChan)
		c.StopChan = nil
	}
}

// SetupPortForward establishes a port-forward to the search cluster service and waits for it to be ready.
// The caller is responsible for calling Close when done.
func SetupPortForward(
	ctx context.Context,
	k8sClient k8s.Interface,
	namespace string,
	serviceName string,
	localPort int,
	remotePort int,
	log *logger.Logger,
) (*Conn, error) {
	log.Infof("Setting up port-forward to %s:%d in namespace %s...", serviceName, remotePort, namespace)

	stopChan, readyChan, errChan, err := k8sClient.PortForwardService(ctx, namespace, serviceName, localPort, remotePort)
	if err != nil {
		return nil, fmt.Errorf("failed to setup port-forward: %w", err)
	}

	select {
	case <-readyChan:
	case err, ok := <-errChan:
		close(stopChan)
		if !ok || err == nil {
			return nil, fmt.Errorf("port-forward to %s stopped before it was ready", serviceName)
		}
		return nil, fmt.Errorf("port-forward to %s failed: %w", serviceName, err)
	case <-ctx.Done():
		close(stopChan)
		return nil, fmt.Errorf("port-forward to %s not ready: %w", serviceName, ctx.Err())
	}

	log.Successf("Port-forward established successfully")

	return &Conn{
		StopChan:  stopChan,
		ReadyChan: readyChan,
		LocalPort: localPort,
	}, nil
}
