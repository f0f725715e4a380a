package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runToonkit runs the CLI from source with stdin and returns stdout, stderr and
// the exit error. The pricing feed points at a closed port so nothing leaves
// the machine.
func runToonkit(t testing.TB, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "../.."}, args...)...)
	cmd.Env = append(os.Environ(), "TOONKIT_PRICING_URL=http://127.0.0.1:1/prices.json")
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// TestEndToEnd_NestedDocumentRoundTrips converts a nested document through
// every format that can hold it and back to JSON
func TestEndToEnd_NestedDocumentRoundTrips(t *testing.T) {
	tempDir := t.TempDir()

	jsonContent := `{
		"id": 12345,
		"created_at": "2023-05-20T14:56:23Z",
		"updated_at": null,
		"config": {
			"enabled": true,
			"timeout_seconds": 30,
			"features": ["logging", "metrics", "alerting"],
			"rate_limits": {"per_second": 100, "burst": 150}
		},
		"users": [
			{"id": 1, "name": "Alice", "email": "alice@example.com"},
			{"id": 2, "name": "Bob", "email": "bob@example.com"}
		],
		"stats": {"success_rate": 0.9999, "response_times": [0.045, 0.067]},
		"active": true
	}`
	jsonFile := filepath.Join(tempDir, "complex.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(jsonContent), 0o644))

	var want any
	require.NoError(t, json.Unmarshal([]byte(jsonContent), &want))

	for _, format := range []string{"toon", "yaml"} {
		t.Run(format, func(t *testing.T) {
			outputFile := filepath.Join(tempDir, "complex."+format)
			_, stderr, err := runToonkit(t, "", "convert", "-i", jsonFile, "-o", outputFile, "-t", format)
			require.NoError(t, err, "CLI command failed: %s", stderr)

			back, stderr, err := runToonkit(t, "", "convert", "-i", outputFile, "-t", "json")
			require.NoError(t, err, "CLI command failed: %s", stderr)

			var got any
			require.NoError(t, json.Unmarshal([]byte(back), &got))
			assert.Equal(t, want, got)
		})
	}

	toonOut, _, err := runToonkit(t, "", "convert", "-i", jsonFile, "-t", "toon")
	require.NoError(t, err)
	assert.Contains(t, toonOut, "users[2]{id,name,email}:")
	assert.Contains(t, toonOut, "  1,Alice,alice@example.com")
	assert.Contains(t, toonOut, "features[3]: logging,metrics,alerting")
	assert.Contains(t, toonOut, `created_at: "2023-05-20T14:56:23Z"`)
}

// TestEndToEnd_CSVPipeline exercises stdin input and format flags
func TestEndToEnd_CSVPipeline(t *testing.T) {
	csvContent := "sku,name,price,in_stock\nA1,Lamp,12.50,true\nB2,\"Desk, oak\",199,false\n"

	stdout, stderr, err := runToonkit(t, csvContent, "convert", "-f", "csv", "-t", "toon")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Equal(t, "[2]{sku,name,price,in_stock}:\n  A1,Lamp,12.5,true\n  B2,\"Desk, oak\",199,false\n", stdout)

	back, stderr, err := runToonkit(t, stdout, "convert", "-f", "toon", "-t", "csv")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Equal(t, "sku,name,price,in_stock\nA1,Lamp,12.5,true\nB2,\"Desk, oak\",199,false\n", back)
}

// TestEndToEnd_Errors checks exit status and the message users see
func TestEndToEnd_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		stdin    string
		args     []string
		expected string
	}{
		{
			name:     "InvalidJSON",
			stdin:    `{"name": "Invalid JSON",}`,
			args:     []string{"convert", "-t", "toon"},
			expected: "Parse error:",
		},
		{
			name:     "HeaderOnlyCSV",
			stdin:    "a,b\n",
			args:     []string{"convert", "-f", "csv", "-t", "json"},
			expected: "CSV must have at least a header and one data row",
		},
		{
			name:     "NestedToCSV",
			stdin:    `{"a": 1}`,
			args:     []string{"convert", "-t", "csv"},
			expected: "Unsupported structure:",
		},
		{
			name:     "EmptyInput",
			stdin:    "",
			args:     []string{"convert", "-t", "json"},
			expected: "Please enter some data to convert",
		},
		{
			name:     "UnknownFormat",
			stdin:    "{}",
			args:     []string{"convert", "-t", "toml"},
			expected: "Input error:",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, stderr, err := runToonkit(t, tc.stdin, tc.args...)
			require.Error(t, err, "Expected an error for %s", tc.name)
			assert.Contains(t, stderr, tc.expected)
			assert.Contains(t, stderr, "For help, run: toonkit --help")
		})
	}
}

// TestEndToEnd_EdgeCases converts scalar and empty roots
func TestEndToEnd_EdgeCases(t *testing.T) {
	testCases := []struct {
		name     string
		json     string
		to       string
		expected string
	}{
		{name: "EmptyObject", json: `{}`, to: "toon", expected: ""},
		{name: "EmptyArray", json: `[]`, to: "toon", expected: "[0]:"},
		{name: "SingleString", json: `"just a string"`, to: "toon", expected: "just a string"},
		{name: "SingleNumber", json: `42`, to: "yaml", expected: "42"},
		{name: "SingleBoolean", json: `true`, to: "toon", expected: "true"},
		{name: "SingleNull", json: `null`, to: "json", expected: "null"},
		{name: "DeeplyNestedObject", json: `{"l1":{"l2":{"l3":{"value":42}}}}`, to: "toon", expected: "l1:\n  l2:\n    l3:\n      value: 42"},
		{name: "DeeplyNestedArray", json: `[[[42]]]`, to: "json", expected: "[\n  [\n    [\n      42\n    ]\n  ]\n]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, stderr, err := runToonkit(t, tc.json, "convert", "-t", tc.to)
			require.NoError(t, err, "Unexpected error for %s: %s", tc.name, stderr)
			assert.Equal(t, tc.expected+"\n", stdout)
		})
	}
}

// TestEndToEnd_Cost prices a token count without touching the network
func TestEndToEnd_Cost(t *testing.T) {
	stdout, stderr, err := runToonkit(t, "", "cost", "--tokens", "1500", "--price", "2.5")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Equal(t, "$0.003750\n", stdout)

	stdout, stderr, err = runToonkit(t, "", "cost", "--tokens", "1000000")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Equal(t, "$1.25\n", stdout, "unreachable feed falls back to the built-in price")
	assert.Contains(t, stderr, "using fallback")
}

// generateLargeJSON generates a large JSON file with the specified number of items
func generateLargeJSON(t testing.TB, filePath string, itemCount int) {
	// Seed random for reproducible results
	rng := rand.New(rand.NewSource(42))

	items := make([]map[string]any, itemCount)
	for i := 0; i < itemCount; i++ {
		items[i] = map[string]any{
			"id":          i + 1,
			"name":        fmt.Sprintf("Item %d", i+1),
			"description": fmt.Sprintf("This is item number %d in the test dataset", i+1),
			"created_at":  time.Now().Add(-time.Duration(rng.Intn(10000)) * time.Hour).Format(time.RFC3339),
			"price":       rng.Float64() * 1000,
			"quantity":    rng.Intn(100),
			"active":      rng.Intn(2) == 1,
		}
	}

	data, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filePath, data, 0o644))
}

// BenchmarkLargeJSON benchmarks the CLI converting large flat arrays
func BenchmarkLargeJSON(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	for _, size := range []int{100, 1000} {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			tempDir := b.TempDir()
			jsonFile := filepath.Join(tempDir, "large.json")
			generateLargeJSON(b, jsonFile, size)
			outputFile := filepath.Join(tempDir, "large.toon")

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, stderr, err := runToonkit(b, "", "convert", "-i", jsonFile, "-o", outputFile, "-t", "toon")
				if err != nil {
					b.Fatalf("CLI command failed: %v\n%s", err, stderr)
				}
			}
		})
	}
}
