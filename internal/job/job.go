// Package job prepares CWL job documents: it loads a YAML config
// template, merges in references to the user's input files, and writes
// the merged document to the job file handed to the CWL engine.
package job

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a CWL job mapping as loaded from YAML. Keys and structure
// are defined by the pipeline's CWL input schema; no validation is done
// here beyond successful parsing.
type Document map[string]any

// Load reads and parses a YAML config file into a Document.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	if doc == nil {
		doc = make(Document)
	}

	return doc, nil
}

// OutputName derives the job filename from the config path: the base
// name with its extension stripped and ".final.yml" appended.
// "conf/qiime2.yml" becomes "qiime2.final.yml".
func OutputName(configPath string) string {
	base := filepath.Base(configPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".final.yml"
}

// Write serializes the document to path, overwriting any existing file.
func Write(doc Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal job document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write job file: %w", err)
	}
	return nil
}
