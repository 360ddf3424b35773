// Package config provides configuration management for the lifecycle CLI tool.
// It supports loading configuration from Kubernetes ConfigMaps and Secrets
// with a merge strategy that allows ConfigMap to be overridden by Secret.
package config

import (
	"context"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Config represents the merged configuration from ConfigMap and Secret
type Config struct {
	Cluster   ClusterConfig   `yaml:"cluster" validate:"required"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
}

// ClusterConfig holds connection details for the search cluster
type ClusterConfig struct {
	Service  ServiceConfig `yaml:"service" validate:"required"`
	Engine   string        `yaml:"engine" validate:"omitempty,oneof=elasticsearch opensearch es os"` // Must match the detected engine when set
	Username string        `yaml:"username"`                                                         // From secret
	Password string        `yaml:"password" validate:"required_with=Username"`                       // From secret
}

// ServiceConfig holds service connection details
type ServiceConfig struct {
	Name                 string `yaml:"name" validate:"required"`
	Port                 int    `yaml:"port" validate:"required,min=1,max=65535"`
	LocalPortForwardPort int    `yaml:"localPortForwardPort" validate:"required,min=1,max=65535"`
}

// LifecycleConfig holds the policies managed by "policy apply"
type LifecycleConfig struct {
	Concurrency int                               `yaml:"concurrency" validate:"omitempty,min=1,max=32"`
	Policies    map[string]map[string]interface{} `yaml:"policies" validate:"dive,keys,required,endkeys,required"`
}

// LoadConfig loads and merges configuration from ConfigMap and Secret
// ConfigMap provides base configuration, Secret overrides it
// All required fields must be present after merging, validated with validator
func LoadConfig(clientset kubernetes.Interface, namespace, configMapName, secretName string) (*Config, error) {
	ctx := context.Background()
	config := &Config{}

	// Load ConfigMap if it exists
	if configMapName != "" {
		cm, err := clientset.CoreV1().ConfigMaps(namespace).Get(ctx, configMapName, metav1.GetOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to get ConfigMap '%s': %w", configMapName, err)
		}

		if configData, ok := cm.Data["config"]; ok {
			if err := yaml.Unmarshal([]byte(configData), config); err != nil {
				return nil, fmt.Errorf("failed to parse ConfigMap config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("ConfigMap '%s' does not contain 'config' key", configMapName)
		}
	}

	// Load Secret if it exists (overrides ConfigMap)
	if secretName != "" {
		secret, err := clientset.CoreV1().Secrets(namespace).Get(ctx, secretName, metav1.GetOptions{})
		if err != nil {
			// Secret is optional - only used for overrides
			fmt.Fprintf(os.Stderr, "Warning: Secret '%s' not found, using ConfigMap only\n", secretName)
		} else if configData, ok := secret.Data["config"]; ok {
			var secretConfig Config
			if err := yaml.Unmarshal(configData, &secretConfig); err != nil {
				return nil, fmt.Errorf("failed to parse Secret config: %w", err)
			}
			// Merge Secret config into base config (non-zero values override)
			if err := mergo.Merge(config, secretConfig, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge Secret config: %w", err)
			}
		}
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the struct tags of a merged configuration
func Validate(config *Config) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

type Context struct {
	Config *CLIConfig
}

type CLIConfig struct {
	Namespace     string
	Kubeconfig    string
	Debug         bool
	Quiet         bool
	ConfigMapName string
	SecretName    string
	OutputFormat  string // table, json

	// URL connects directly to a cluster instead of port-forwarding
	URL      string
	Username string
	Password string
}

func NewContext() *Context {
	return &Context{
		Config: &CLIConfig{},
	}
}
