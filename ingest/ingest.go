// Package ingest decodes graph payloads into raw node and link records.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TFMV/forcegraph/models"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for a payload format with no processor
var ErrUnsupportedFormat = errors.New("unsupported payload format")

// ErrMalformed is returned when a payload cannot be decoded
var ErrMalformed = errors.New("malformed payload")

// Payload is the decoded input: node records and link records by node id
type Payload struct {
	Nodes []models.RawNode `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Links []models.RawLink `json:"links" yaml:"links" msgpack:"links"`
}

// Graph resolves the payload into a graph. Each call builds a new graph.
func (p *Payload) Graph() (*models.Graph, error) {
	return models.Load(p.Nodes, p.Links)
}

// DataProcessor defines the interface that all payload decoders must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns the decoded payload
	ProcessData(data []byte) (*Payload, error)

	// GetName returns the name of the processor
	GetName() string
}

// JSONProcessor handles JSON payloads
type JSONProcessor struct{}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData decodes a JSON payload
func (p *JSONProcessor) ProcessData(data []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "json: %v", err)
	}
	return normalize(&payload), nil
}

// YAMLProcessor handles YAML payloads
type YAMLProcessor struct{}

// GetName returns the name of the processor
func (p *YAMLProcessor) GetName() string {
	return "YAML Processor"
}

// ProcessData decodes a YAML payload
func (p *YAMLProcessor) ProcessData(data []byte) (*Payload, error) {
	var payload Payload
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "yaml: %v", err)
	}
	return normalize(&payload), nil
}

// MsgpackProcessor handles MessagePack payloads
type MsgpackProcessor struct{}

// GetName returns the name of the processor
func (p *MsgpackProcessor) GetName() string {
	return "MessagePack Processor"
}

// ProcessData decodes a MessagePack payload
func (p *MsgpackProcessor) ProcessData(data []byte) (*Payload, error) {
	var payload Payload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "msgpack: %v", err)
	}
	return normalize(&payload), nil
}

// CSVProcessor handles edge lists. Nodes are derived from the link endpoints
// in order of first appearance.
type CSVProcessor struct{}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData decodes a CSV edge list. The header must name source and
// target columns; value, source_group and target_group are optional.
func (p *CSVProcessor) ProcessData(data []byte) (*Payload, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return normalize(&Payload{}), nil
	}
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "csv header: %v", err)
	}

	sourceIdx, targetIdx, valueIdx := -1, -1, -1
	sourceGroupIdx, targetGroupIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source", "from", "src":
			sourceIdx = i
		case "target", "to", "dst":
			targetIdx = i
		case "value", "weight":
			valueIdx = i
		case "source_group":
			sourceGroupIdx = i
		case "target_group":
			targetGroupIdx = i
		}
	}
	if sourceIdx < 0 || targetIdx < 0 {
		return nil, errors.Wrap(ErrMalformed, "csv: header needs source and target columns")
	}

	payload := &Payload{}
	seen := map[string]bool{}
	addNode := func(id string, row []string, groupIdx int) error {
		if seen[id] {
			return nil
		}
		seen[id] = true
		node := models.RawNode{ID: id}
		if groupIdx >= 0 && groupIdx < len(row) && row[groupIdx] != "" {
			g, err := strconv.Atoi(row[groupIdx])
			if err != nil {
				return errors.Wrapf(ErrMalformed, "csv: group of %q: %v", id, err)
			}
			node.Group = g
		}
		payload.Nodes = append(payload.Nodes, node)
		return nil
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "csv line %d: %v", line, err)
		}
		if sourceIdx >= len(row) || targetIdx >= len(row) {
			return nil, errors.Wrapf(ErrMalformed, "csv line %d: missing columns", line)
		}

		link := models.RawLink{Source: row[sourceIdx], Target: row[targetIdx], Value: 1}
		if valueIdx >= 0 && valueIdx < len(row) && row[valueIdx] != "" {
			v, err := strconv.ParseFloat(row[valueIdx], 64)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformed, "csv line %d: value: %v", line, err)
			}
			link.Value = v
		}
		if err := addNode(link.Source, row, sourceGroupIdx); err != nil {
			return nil, err
		}
		if err := addNode(link.Target, row, targetGroupIdx); err != nil {
			return nil, err
		}
		payload.Links = append(payload.Links, link)
	}
	return normalize(payload), nil
}

func normalize(p *Payload) *Payload {
	if p.Nodes == nil {
		p.Nodes = []models.RawNode{}
	}
	if p.Links == nil {
		p.Links = []models.RawLink{}
	}
	return p
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONProcessor{}, nil
	case "yaml", "yml":
		return &YAMLProcessor{}, nil
	case "msgpack", "mp":
		return &MsgpackProcessor{}, nil
	case "csv":
		return &CSVProcessor{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
}

// FormatFromPath returns the payload format implied by a file extension
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// ProcessFile reads and decodes the payload at path, using format or, when it
// is empty, the file extension. The payload is checked by resolving it once,
// so a returned payload always loads.
func ProcessFile(path, format string) (*Payload, error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	processor, err := GetProcessor(format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read payload %s", path)
	}
	payload, err := processor.ProcessData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if _, err := payload.Graph(); err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return payload, nil
}
