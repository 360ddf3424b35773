package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

const invalidConfigYAML = `
cluster:
  service:
    name: ""
    port: 0
`

// loadTestData loads test configuration from testdata files
func loadTestData(t *testing.T, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	require.NoError(t, err, "failed to read test data file: %s", filename)
	return string(data)
}

func createConfigMap(t *testing.T, client *fake.Clientset, name string, data map[string]string) {
	t.Helper()
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "test-ns",
		},
		Data: data,
	}
	_, err := client.CoreV1().ConfigMaps("test-ns").Create(context.Background(), cm, metav1.CreateOptions{})
	require.NoError(t, err)
}

func createSecret(t *testing.T, client *fake.Clientset, name string, data map[string][]byte) {
	t.Helper()
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "test-ns",
		},
		Data: data,
	}
	_, err := client.CoreV1().Secrets("test-ns").Create(context.Background(), secret, metav1.CreateOptions{})
	require.NoError(t, err)
}

func TestLoadConfig_FromConfigMapOnly(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	createConfigMap(t, fakeClient, "lifecycle-config", map[string]string{
		"config": loadTestData(t, "validConfigMapOnly.yaml"),
	})

	config, err := LoadConfig(fakeClient, "test-ns", "lifecycle-config", "")

	require.NoError(t, err)
	assert.NotNil(t, config)
	assert.Equal(t, "suse-observability-elasticsearch-master-headless", config.Cluster.Service.Name)
	assert.Equal(t, 9200, config.Cluster.Service.Port)
	assert.Equal(t, "configmap-user", config.Cluster.Username)
	assert.Equal(t, "configmap-password", config.Cluster.Password)
	require.Contains(t, config.Lifecycle.Policies, "sts-logs")
	assert.Contains(t, config.Lifecycle.Policies["sts-logs"], "phases")
}

func TestLoadConfig_CompleteConfiguration(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	createConfigMap(t, fakeClient, "lifecycle-config", map[string]string{
		"config": loadTestData(t, "validConfigMapConfig.yaml"),
	})
	createSecret(t, fakeClient, "lifecycle-secret", map[string][]byte{
		"config": []byte(loadTestData(t, "validSecretConfig.yaml")),
	})

	config, err := LoadConfig(fakeClient, "test-ns", "lifecycle-config", "lifecycle-secret")

	require.NoError(t, err)
	assert.NotNil(t, config)

	// Service config
	assert.Equal(t, "suse-observability-elasticsearch-master-headless", config.Cluster.Service.Name)
	assert.Equal(t, 9200, config.Cluster.Service.Port)
	assert.Equal(t, 9200, config.Cluster.Service.LocalPortForwardPort)
	assert.Equal(t, "elasticsearch", config.Cluster.Engine)

	// Credentials come from Secret
	assert.Equal(t, "secret-user", config.Cluster.Username)
	assert.Equal(t, "secret-password", config.Cluster.Password)

	// Lifecycle config survives the merge
	assert.Equal(t, 2, config.Lifecycle.Concurrency)
	require.Len(t, config.Lifecycle.Policies, 2)
	assert.Contains(t, config.Lifecycle.Policies["sts-logs"], "phases")
	assert.Contains(t, config.Lifecycle.Policies["sts-events"], "states")
	assert.Equal(t, "hot", config.Lifecycle.Policies["sts-events"]["default_state"])
}

func TestLoadConfig_WithSecretOverride(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	createConfigMap(t, fakeClient, "lifecycle-config", map[string]string{
		"config": loadTestData(t, "validConfigMapOnly.yaml"),
	})
	createSecret(t, fakeClient, "lifecycle-secret", map[string][]byte{
		"config": []byte(loadTestData(t, "validSecretConfig.yaml")),
	})

	config, err := LoadConfig(fakeClient, "test-ns", "lifecycle-config", "lifecycle-secret")

	// Secret should override ConfigMap credentials
	require.NoError(t, err)
	assert.Equal(t, "secret-user", config.Cluster.Username)
	assert.Equal(t, "secret-password", config.Cluster.Password)
	assert.Equal(t, "suse-observability-elasticsearch-master-headless", config.Cluster.Service.Name)
}

func TestLoadConfig_ConfigMapNotFound(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()

	config, err := LoadConfig(fakeClient, "test-ns", "nonexistent", "")

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to get ConfigMap")
}

func TestLoadConfig_ConfigMapMissingConfigKey(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	createConfigMap(t, fakeClient, "lifecycle-config", map[string]string{
		"wrong-key": loadTestData(t, "validConfigMapOnly.yaml"),
	})

	config, err := LoadConfig(fakeClient, "test-ns", "lifecycle-config", "")

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "does not contain 'config' key")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	createConfigMap(t, fakeClient, "lifecycle-config", map[string]string{
		"config": "invalid: yaml: content: [unclosed",
	})

	config, err := LoadConfig(fakeClient, "test-ns", "lifecycle-config", "")

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse ConfigMap config")
}

func TestLoadConfig_InvalidSecretYAML(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	createConfigMap(t, fakeClient, "lifecycle-config", map[string]string{
		"config": loadTestData(t, "validConfigMapOnly.yaml"),
	})
	createSecret(t, fakeClient, "lifecycle-secret", map[string][]byte{
		"config": []byte("cluster: [unclosed"),
	})

	_, err := LoadConfig(fakeClient, "test-ns", "lifecycle-config", "lifecycle-secret")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Secret config")
}

func TestLoadConfig_ValidationFails(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	createConfigMap(t, fakeClient, "lifecycle-config", map[string]string{
		"config": invalidConfigYAML,
	})

	config, err := LoadConfig(fakeClient, "test-ns", "lifecycle-config", "")

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestLoadConfig_SecretNotFoundWarning(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()
	createConfigMap(t, fakeClient, "lifecycle-config", map[string]string{
		"config": loadTestData(t, "validConfigMapOnly.yaml"),
	})

	// Secret is optional
	config, err := LoadConfig(fakeClient, "test-ns", "lifecycle-config", "nonexistent-secret")

	require.NoError(t, err)
	assert.NotNil(t, config)
	assert.Equal(t, "configmap-user", config.Cluster.Username)
}

func TestLoadConfig_EmptyConfigMapName(t *testing.T) {
	fakeClient := fake.NewSimpleClientset()

	config, err := LoadConfig(fakeClient, "test-ns", "", "")

	// Should fail - ConfigMap is required
	assert.Error(t, err)
	assert.Nil(t, config)
}

func TestNewContext(t *testing.T) {
	ctx := NewContext()

	assert.NotNil(t, ctx)
	assert.NotNil(t, ctx.Config)
	assert.Equal(t, "", ctx.Config.Namespace)
	assert.Equal(t, "", ctx.Config.URL)
	assert.False(t, ctx.Config.Debug)
	assert.False(t, ctx.Config.Quiet)
	assert.Equal(t, "", ctx.Config.OutputFormat)
}

//nolint:funlen
func TestConfig_StructValidation(t *testing.T) {
	validService := ServiceConfig{
		Name:                 "es-master",
		Port:                 9200,
		LocalPortForwardPort: 9200,
	}

	tests := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{
			name: "valid config",
			config: &Config{
				Cluster: ClusterConfig{Service: validService},
				Lifecycle: LifecycleConfig{
					Concurrency: 4,
					Policies: map[string]map[string]interface{}{
						"sts-logs": {"phases": map[string]interface{}{}},
					},
				},
			},
			expectError: false,
		},
		{
			name: "invalid port number",
			config: &Config{
				Cluster: ClusterConfig{Service: ServiceConfig{
					Name:                 "es-master",
					Port:                 0,
					LocalPortForwardPort: 9200,
				}},
			},
			expectError: true,
		},
		{
			name: "username without password",
			config: &Config{
				Cluster: ClusterConfig{Service: validService, Username: "elastic"},
			},
			expectError: true,
		},
		{
			name: "expected engine",
			config: &Config{
				Cluster: ClusterConfig{Service: validService, Engine: "opensearch"},
			},
			expectError: false,
		},
		{
			name: "unknown expected engine",
			config: &Config{
				Cluster: ClusterConfig{Service: validService, Engine: "solr"},
			},
			expectError: true,
		},
		{
			name: "concurrency out of range",
			config: &Config{
				Cluster:   ClusterConfig{Service: validService},
				Lifecycle: LifecycleConfig{Concurrency: 100},
			},
			expectError: true,
		},
		{
			name: "empty policy name",
			config: &Config{
				Cluster: ClusterConfig{Service: validService},
				Lifecycle: LifecycleConfig{
					Policies: map[string]map[string]interface{}{
						"": {"phases": map[string]interface{}{}},
					},
				},
			},
			expectError: true,
		},
		{
			name: "nil policy document",
			config: &Config{
				Cluster: ClusterConfig{Service: validService},
				Lifecycle: LifecycleConfig{
					Policies: map[string]map[string]interface{}{
						"sts-logs": nil,
					},
				},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Use validator directly to test struct validation
			validate := validator.New()
			err := validate.Struct(tt.config)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, err == nil, Validate(tt.config) == nil)
		})
	}
}
