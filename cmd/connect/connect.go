// Package connect opens a verified connection to the search cluster for CLI
// commands, either directly through --url or through a port-forward to the
// service named in the configuration.
package connect

import (
	"context"
	"fmt"

	"github.com/stackvista/sts-lifecycle/cmd/portforward"
	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/elasticsearch"
	"github.com/stackvista/sts-lifecycle/internal/engine"
	"github.com/stackvista/sts-lifecycle/internal/k8s"
	"github.com/stackvista/sts-lifecycle/internal/lifecycle"
	"github.com/stackvista/sts-lifecycle/internal/logger"
)

// Session is an open connection to a cluster
type Session struct {
	Client   elasticsearch.Interface
	Conn     engine.Connection
	Detected *engine.Detected
	Manager  *lifecycle.Manager
	// Config is only set when the connection was resolved from the cluster configuration
	Config *config.Config

	pf *portforward.Conn
}

// Close releases the port-forward, if any
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.pf.Close()
}

// LoadConfig reads the ConfigMap and Secret named by the CLI flags
func LoadConfig(cliCtx *config.Context) (*config.Config, *k8s.Client, error) {
	if cliCtx.Config.Namespace == "" {
		return nil, nil, fmt.Errorf("--namespace is required when --url is not set")
	}

	k8sClient, err := k8s.NewClient(cliCtx.Config.Kubeconfig, cliCtx.Config.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	cfg, err := config.LoadConfig(k8sClient.Clientset(), cliCtx.Config.Namespace, cliCtx.Config.ConfigMapName, cliCtx.Config.SecretName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, k8sClient, nil
}

// Open connects to the cluster and detects its engine and version
func Open(ctx context.Context, cliCtx *config.Context, log *logger.Logger) (*Session, error) {
	sess := &Session{}

	baseURL := cliCtx.Config.URL
	username := cliCtx.Config.Username
	password := cliCtx.Config.Password

	if baseURL == "" {
		cfg, k8sClient, err := LoadConfig(cliCtx)
		if err != nil {
			return nil, err
		}
		sess.Config = cfg

		svc := cfg.Cluster.Service
		pf, err := portforward.SetupPortForward(ctx, k8sClient, cliCtx.Config.Namespace, svc.Name, svc.LocalPortForwardPort, svc.Port, log)
		if err != nil {
			return nil, err
		}
		sess.pf = pf

		baseURL = fmt.Sprintf("http://localhost:%d", pf.LocalPort)
		if username == "" {
			username = cfg.Cluster.Username
			password = cfg.Cluster.Password
		}
	}

	if err := sess.connect(ctx, baseURL, elasticsearch.Options{Username: username, Password: password}, log); err != nil {
		sess.Close()
		return nil, err
	}

	if sess.Config != nil {
		if err := checkEngine(sess.Config.Cluster.Engine, sess.Conn.Engine); err != nil {
			sess.Close()
			return nil, err
		}
	}
	return sess, nil
}

// checkEngine fails when the configuration pins an engine the cluster does not run
func checkEngine(expected string, actual engine.Engine) error {
	if expected == "" {
		return nil
	}
	e, err := engine.ParseEngine(expected)
	if err != nil {
		return err
	}
	if e != actual {
		return fmt.Errorf("configuration expects %s but the cluster runs %s", e, actual)
	}
	return nil
}

func (s *Session) connect(ctx context.Context, baseURL string, opts elasticsearch.Options, log *logger.Logger) error {
	client, err := elasticsearch.NewClient(baseURL, opts)
	if err != nil {
		return fmt.Errorf("failed to create cluster client: %w", err)
	}

	log.Debugf("Connecting to %s", baseURL)
	detected, err := client.Detect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to cluster: %w", err)
	}
	conn := engine.NewConnection(detected.Engine, detected.Version, client)

	version := "unknown"
	if detected.Version != nil {
		version = detected.Version.String()
	}
	log.Debugf("Detected %s %s", detected.Engine, version)

	s.Client = client
	s.Conn = conn
	s.Detected = detected
	s.Manager = lifecycle.NewManager(conn, lifecycle.WithLogger(log))
	return nil
}
