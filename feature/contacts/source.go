package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"contact-sync/core/reconcile"
	"contact-sync/core/record"
	"contact-sync/core/storage"

	"go.uber.org/zap"
)

// Export is the wire shape of an address book dump.
type Export struct {
	Contacts []map[string]any `json:"contacts"`
	Groups   []map[string]any `json:"groups"`
}

// Records returns the raw records of family.
func (e *Export) Records(family string) []map[string]any {
	switch family {
	case FamilyContacts:
		return e.Contacts
	case FamilyGroups:
		return e.Groups
	default:
		return nil
	}
}

// SetRecords replaces the raw records of family.
func (e *Export) SetRecords(family string, recs []map[string]any) {
	switch family {
	case FamilyContacts:
		e.Contacts = recs
	case FamilyGroups:
		e.Groups = recs
	}
}

// DecodeExport parses an export document. Numbers are kept exact.
func DecodeExport(data []byte) (*Export, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var exp Export
	if err := dec.Decode(&exp); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return &exp, nil
}

// Token is the correlation token of the i-th record of family in an export.
func Token(family string, i int) string {
	return fmt.Sprintf("%s[%d]", family, i)
}

// Batch normalizes raw records into an incoming batch with positional tokens.
func Batch(reg *record.Registry, raw []map[string]any) ([]reconcile.Incoming, error) {
	batch := make([]reconcile.Incoming, 0, len(raw))
	for i, m := range raw {
		token := Token(reg.Family(), i)
		rec, err := record.Normalize(reg, m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", token, err)
		}
		batch = append(batch, reconcile.Incoming{Token: token, Record: rec})
	}
	return batch, nil
}

// Unbatch overlays a corrected batch onto the raw export records it was built
// from. Registry categories are taken from the corrected record, everything
// else the source carried is kept as is.
func Unbatch(reg *record.Registry, raw []map[string]any, batch []reconcile.Incoming) []map[string]any {
	out := make([]map[string]any, len(batch))
	for i, in := range batch {
		m := make(map[string]any)
		if i < len(raw) {
			maps.Copy(m, raw[i])
		}
		for _, d := range reg.Categories() {
			name := string(d.Name)
			if v, ok := in.Record[name]; ok {
				m[name] = v
			} else {
				delete(m, name)
			}
		}
		out[i] = m
	}
	return out
}

// Source is the external data source: an export object in the bucket.
type Source struct {
	client storage.Client
	bucket string
	cfg    reconcile.Config
	logger *zap.Logger
}

// NewSource creates a source reading and writing exports in bucket.
func NewSource(client storage.Client, bucket string, cfg reconcile.Config, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{client: client, bucket: bucket, cfg: cfg, logger: logger}
}

// Load reads the incoming export. When the configured object ends with a slash
// it is a prefix, and the latest .json object under it is used.
// It returns the export together with the key it was read from.
func (s *Source) Load(ctx context.Context) (*Export, string, error) {
	key := s.cfg.IncomingObject
	if strings.HasSuffix(key, "/") {
		latest, err := storage.LatestObject(ctx, s.client, s.bucket, key, ".json")
		if err != nil {
			return nil, "", err
		}
		key = latest
	}

	data, err := storage.ReadObject(ctx, s.client, s.bucket, key)
	if err != nil {
		return nil, "", err
	}
	exp, err := DecodeExport(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", key, err)
	}

	s.logger.Info("Export loaded",
		zap.String("object", key),
		zap.Int("contacts", len(exp.Contacts)),
		zap.Int("groups", len(exp.Groups)))
	return exp, key, nil
}

// Save writes the corrected export and returns its key.
func (s *Source) Save(ctx context.Context, exp *Export) (string, error) {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	key := s.cfg.CorrectedObject
	if err := storage.EnsureBucket(ctx, s.client, s.bucket); err != nil {
		return "", err
	}
	if err := storage.WriteObject(ctx, s.client, s.bucket, key, data, "application/json"); err != nil {
		return "", err
	}
	s.logger.Info("Corrected export written", zap.String("object", key), zap.Int("bytes", len(data)))
	return key, nil
}
