package symptoms

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

//go:embed dictionary.json
var defaultDictionaryJSON []byte

// ErrEmptyDictionary is returned when a loaded table has no usable entries.
var ErrEmptyDictionary = errors.New("symptoms: dictionary has no entries")

// Dictionary maps a lower-cased symptom keyword to the specialty tags it
// suggests. Tags are matched as substrings of a provider's specialization.
type Dictionary map[string][]string

// DefaultDictionary returns the built-in keyword table.
func DefaultDictionary() Dictionary {
	dict, err := LoadDictionary(bytes.NewReader(defaultDictionaryJSON))
	if err != nil {
		panic(fmt.Sprintf("symptoms: embedded dictionary invalid: %v", err))
	}
	return dict
}

// LoadDictionary decodes a JSON object of keyword -> [tags]. Keywords and tags
// are lower-cased and trimmed; blank entries are dropped.
func LoadDictionary(r io.Reader) (Dictionary, error) {
	var raw map[string][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("symptoms: decode dictionary: %w", err)
	}
	dict := make(Dictionary, len(raw))
	for keyword, tags := range raw {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		cleaned := make([]string, 0, len(tags))
		for _, tag := range tags {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
				cleaned = append(cleaned, tag)
			}
		}
		if len(cleaned) > 0 {
			dict[keyword] = cleaned
		}
	}
	if len(dict) == 0 {
		return nil, ErrEmptyDictionary
	}
	return dict, nil
}

// Keywords returns the sorted keyword list.
func (d Dictionary) Keywords() []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// DictionaryLoader resolves a dictionary from a local path or an
// s3://bucket/key URI.
type DictionaryLoader struct {
	s3 objectGetter
}

// NewDictionaryLoader builds a loader. s3Client may be nil when only local
// files are used.
func NewDictionaryLoader(s3Client objectGetter) *DictionaryLoader {
	return &DictionaryLoader{s3: s3Client}
}

// Load fetches and decodes the dictionary at uri. An empty uri yields the
// built-in table.
func (l *DictionaryLoader) Load(ctx context.Context, uri string) (Dictionary, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return DefaultDictionary(), nil
	}

	if strings.HasPrefix(uri, "s3://") {
		return l.loadS3(ctx, uri)
	}

	f, err := os.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("symptoms: open dictionary: %w", err)
	}
	defer f.Close()
	return LoadDictionary(f)
}

func (l *DictionaryLoader) loadS3(ctx context.Context, uri string) (Dictionary, error) {
	if l.s3 == nil {
		return nil, fmt.Errorf("symptoms: s3 client not configured for %s", uri)
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("symptoms: parse dictionary uri: %w", err)
	}
	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("symptoms: dictionary uri %q needs bucket and key", uri)
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("symptoms: fetch dictionary: %w", err)
	}
	defer out.Body.Close()
	return LoadDictionary(out.Body)
}
