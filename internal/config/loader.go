package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/vectordotdev/vector-sub015/internal/corerr"
)

// Loader reads a Document from a file plus environment overrides, the way
// the teacher's own config package layers viper.SetDefault/AutomaticEnv
// over a YAML base file.
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate
}

// NewLoader builds a Loader with VECTOR_-prefixed environment overrides,
// matching the teacher's SetEnvKeyReplacer convention.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("data_dir", "/var/lib/vector")
	return &Loader{v: v, validate: validator.New()}
}

// LoadFile parses the YAML document at path and validates its struct shape
// (the structural half of the shape-validation stage; semantic shape
// checks — e.g. "every transform has at least one input" as a graph
// property — run later in Validate).
func (l *Loader) LoadFile(path string) (*Document, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, corerr.Wrap(corerr.KindConfigShape, err, "read config file %s", path)
	}
	return l.decode()
}

func (l *Loader) decode() (*Document, error) {
	var doc Document
	if err := l.v.Unmarshal(&doc); err != nil {
		return nil, corerr.Wrap(corerr.KindConfigShape, err, "decode config document")
	}
	if err := l.validate.Struct(&doc); err != nil {
		return nil, corerr.Wrap(corerr.KindConfigShape, err, "struct validation")
	}
	for name, s := range doc.Sources {
		if err := l.validate.Struct(&s); err != nil {
			return nil, corerr.Wrap(corerr.KindConfigShape, err, "source %q", name)
		}
	}
	for name, tr := range doc.Transforms {
		if err := l.validate.Struct(&tr); err != nil {
			return nil, corerr.Wrap(corerr.KindConfigShape, err, "transform %q", name)
		}
	}
	for name, sk := range doc.Sinks {
		if err := l.validate.Struct(&sk); err != nil {
			return nil, corerr.Wrap(corerr.KindConfigShape, err, "sink %q", name)
		}
	}
	return &doc, nil
}

func hashDocumentPart(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("config: component spec is not json-serializable: %v", err))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hashDocument(d *Document) string {
	b, err := json.Marshal(d)
	if err != nil {
		// Document always marshals; a failure here means a field type was
		// added without json support, a programmer error worth surfacing
		// loudly rather than silently hashing nothing.
		panic(fmt.Sprintf("config: document is not json-serializable: %v", err))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
