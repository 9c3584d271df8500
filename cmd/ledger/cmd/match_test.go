package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestValidateFileExists(t *testing.T) {
	// Create temporary test files
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		description string
		expectError bool
	}{
		{
			name:        "valid file",
			filePath:    validFile,
			description: "test file",
			expectError: false,
		},
		{
			name:        "empty path",
			filePath:    "",
			description: "test file",
			expectError: true,
		},
		{
			name:        "non-existent file",
			filePath:    "/non/existent/file.csv",
			description: "test file",
			expectError: true,
		},
		{
			name:        "directory instead of file",
			filePath:    tmpDir,
			description: "test file",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, tt.description)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func writeMatchFixtures(t *testing.T) (string, string, string) {
	t.Helper()
	tmpDir := t.TempDir()

	txFile := filepath.Join(tmpDir, "transactions.csv")
	clientFile := filepath.Join(tmpDir, "clients.csv")
	projectFile := filepath.Join(tmpDir, "projects.csv")

	if err := os.WriteFile(txFile, []byte("id,transaction_date,type,supplier_name,supply_amount\nt1,2024-01-15,purchase,Acme Corp,100.00"), 0644); err != nil {
		t.Fatalf("failed to create transactions file: %v", err)
	}
	if err := os.WriteFile(clientFile, []byte("id,name\nc1,Acme Corp"), 0644); err != nil {
		t.Fatalf("failed to create clients file: %v", err)
	}
	if err := os.WriteFile(projectFile, []byte("id,name,client_id,status,start_date\np1,Acme Website,c1,in_progress,2024-01-01"), 0644); err != nil {
		t.Fatalf("failed to create projects file: %v", err)
	}

	return txFile, clientFile, projectFile
}

func TestValidateMatchFlags(t *testing.T) {
	txFile, clientFile, projectFile := writeMatchFixtures(t)

	setRequired := func() {
		viper.Set("transactions-file", txFile)
		viper.Set("clients-file", clientFile)
		viper.Set("projects-file", projectFile)
		viper.Set("output-format", "console")
		viper.Set("profile", "default")
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name:        "valid flags",
			setupFlags:  setRequired,
			expectError: false,
		},
		{
			name: "missing transactions file",
			setupFlags: func() {
				setRequired()
				viper.Set("transactions-file", "")
			},
			expectError:   true,
			errorContains: "transactions file",
		},
		{
			name: "missing clients file",
			setupFlags: func() {
				setRequired()
				viper.Set("clients-file", "/non/existent/clients.csv")
			},
			expectError:   true,
			errorContains: "clients file",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				setRequired()
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "min confidence above one",
			setupFlags: func() {
				setRequired()
				viper.Set("min-confidence", 1.5)
			},
			expectError:   true,
			errorContains: "min-confidence must be between 0.0 and 1.0",
		},
		{
			name: "negative min confidence",
			setupFlags: func() {
				setRequired()
				viper.Set("min-confidence", -0.1)
			},
			expectError:   true,
			errorContains: "min-confidence must be between 0.0 and 1.0",
		},
		{
			name: "invalid profile",
			setupFlags: func() {
				setRequired()
				viper.Set("profile", "aggressive")
			},
			expectError:   true,
			errorContains: "invalid profile",
		},
		{
			name: "budget ratio above one",
			setupFlags: func() {
				setRequired()
				viper.Set("budget-ratio", 2.0)
			},
			expectError:   true,
			errorContains: "budget-ratio must be between 0.0 and 1.0",
		},
		{
			name: "output directory does not exist",
			setupFlags: func() {
				setRequired()
				viper.Set("output-file", "/non/existent/dir/report.json")
			},
			expectError:   true,
			errorContains: "output directory does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper
			viper.Reset()
			tt.setupFlags()

			cmd := &cobra.Command{}
			err := validateMatchFlags(cmd, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestMatchCommandHelp(t *testing.T) {
	cmd := matchCmd

	// Test that command has required flags
	for _, flagName := range []string{"transactions-file", "clients-file", "projects-file", "output-format", "profile"} {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("%s flag not found", flagName)
		}
	}

	// Test help output contains key information
	var helpOutput bytes.Buffer
	cmd.SetOut(&helpOutput)
	cmd.Help()

	helpText := helpOutput.String()

	expectedSections := []string{
		"Usage:",
		"Examples:",
		"Flags:",
		"--transactions-file",
		"--clients-file",
		"--projects-file",
		"--min-confidence",
	}

	for _, section := range expectedSections {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestOutputFormatValidation(t *testing.T) {
	validFormats := []string{"console", "json", "csv"}
	invalidFormats := []string{"xml", "yaml", "invalid", ""}

	for _, format := range validFormats {
		t.Run(fmt.Sprintf("valid_%s", format), func(t *testing.T) {
			validFormatsMap := map[string]bool{"console": true, "json": true, "csv": true}
			if !validFormatsMap[format] {
				t.Errorf("format '%s' should be valid", format)
			}
		})
	}

	for _, format := range invalidFormats {
		t.Run(fmt.Sprintf("invalid_%s", format), func(t *testing.T) {
			validFormatsMap := map[string]bool{"console": true, "json": true, "csv": true}
			if validFormatsMap[format] {
				t.Errorf("format '%s' should be invalid", format)
			}
		})
	}
}
