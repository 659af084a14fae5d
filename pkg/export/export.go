package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"p95status/pkg/logger"
	"p95status/pkg/savefile"
	"p95status/pkg/status"
)

// Export formats
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

// Document is the structured form of one status run
type Document struct {
	GeneratedAt time.Time                   `json:"generated_at" yaml:"generated_at" msgpack:"generated_at"`
	RunID       string                      `json:"run_id" yaml:"run_id" msgpack:"run_id"`
	Directory   string                      `json:"directory" yaml:"directory" msgpack:"directory"`
	Records     map[string]*savefile.Record `json:"records" yaml:"records" msgpack:"records"`
	Failures    map[string]string           `json:"failures,omitempty" yaml:"failures,omitempty" msgpack:"failures,omitempty"`
}

// NewDocument collects the decoded records and failure reasons of rep
func NewDocument(rep *status.Report, runID string) *Document {
	doc := &Document{
		GeneratedAt: time.Now().UTC(),
		RunID:       runID,
		Directory:   rep.Directory,
		Records:     make(map[string]*savefile.Record, len(rep.Entries)),
	}
	for _, e := range rep.Entries {
		doc.Records[e.Name] = e.Record
	}
	if len(rep.Failures) > 0 {
		doc.Failures = make(map[string]string, len(rep.Failures))
		for _, f := range rep.Failures {
			doc.Failures[f.Name] = f.Reason()
		}
	}
	return doc
}

// FormatFromPath infers the export format from the file extension
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".msgpack", ".mpk", ".mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("cannot infer export format from %q, use json, yaml or msgpack", path)
	}
}

// ValidFormat reports whether format names a supported encoding
func ValidFormat(format string) bool {
	switch format {
	case FormatJSON, FormatYAML, FormatMsgpack:
		return true
	}
	return false
}

// Marshal encodes doc in the given format
func Marshal(format string, doc *Document) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(jsonSafe(doc), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatMsgpack:
		return msgpack.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// jsonSafe returns doc with every record JSON cannot represent, such as one
// with a NaN or infinite k, moved to the failures. doc itself is not changed.
func jsonSafe(doc *Document) *Document {
	rejected := make(map[string]error)
	for name, rec := range doc.Records {
		if _, err := json.Marshal(rec); err != nil {
			rejected[name] = err
		}
	}
	if len(rejected) == 0 {
		return doc
	}

	safe := *doc
	safe.Records = make(map[string]*savefile.Record, len(doc.Records)-len(rejected))
	for name, rec := range doc.Records {
		if _, ok := rejected[name]; !ok {
			safe.Records[name] = rec
		}
	}
	safe.Failures = make(map[string]string, len(doc.Failures)+len(rejected))
	for name, reason := range doc.Failures {
		safe.Failures[name] = reason
	}
	for name, err := range rejected {
		safe.Failures[name] = "not representable in JSON: " + err.Error()
		logger.GetLogger().WarnWithFields("Record left out of JSON export", map[string]interface{}{
			"file":  name,
			"error": err,
		})
	}
	return &safe
}

// Unmarshal decodes data written by Marshal
func Unmarshal(format string, data []byte) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s export: %w", format, err)
	}
	return &doc, nil
}

// Write encodes doc and atomically replaces path with it. An empty format is
// inferred from the extension.
func Write(path, format string, doc *Document) error {
	if format == "" {
		inferred, err := FormatFromPath(path)
		if err != nil {
			return err
		}
		format = inferred
	}

	data, err := Marshal(format, doc)
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	if err := writeAtomic(path, data); err != nil {
		return err
	}

	logger.GetLogger().DebugWithFields("Export written", map[string]interface{}{
		"path":    path,
		"format":  format,
		"records": len(doc.Records),
		"run_id":  doc.RunID,
	})
	return nil
}

// Read loads an export file, inferring its format from the extension
func Read(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return Unmarshal(format, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary export file: %w", err)
	}
	tempPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write export: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync export file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close export file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set export permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace export file: %w", err)
	}
	return nil
}
