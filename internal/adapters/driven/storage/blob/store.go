package blob

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
)

const (
	recordSize = 16

	// metaFields is the number of tab-separated fields per metadata line.
	metaFields = 6

	maxMetaLine = 16 * 1024 * 1024
)

// File extensions of the three files of a store.
const (
	DataExt  = ".data"
	IndexExt = ".idx"
	MetaExt  = ".meta"
)

// BaseName returns the file base name used for a storage level.
func BaseName(level domain.Level) string {
	switch level {
	case domain.LevelDocument:
		return "documentStorage"
	case domain.LevelParagraph:
		return "paragraphStorage"
	case domain.LevelSentence:
		return "sentenceStorage"
	default:
		return strings.ToLower(level.String()) + "Storage"
	}
}

// Store is an append-only data file with a fixed-width index and a
// metadata log.
type Store struct {
	mu sync.Mutex

	data  *os.File
	index *os.File
	meta  *os.File

	// end is the next free offset in the data file. Only Save advances it.
	end int64

	base string
}

var _ driven.BlobStore = (*Store)(nil)

// Open opens or creates the file triple <dir>/<name>.{data,idx,meta}.
func Open(dir, name string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating blob directory: %v", domain.ErrStorageIO, err)
	}

	base := filepath.Join(dir, name)
	s := &Store{base: base}

	var err error
	if s.data, err = os.OpenFile(base+DataExt, os.O_RDWR|os.O_CREATE, 0600); err != nil {
		return nil, fmt.Errorf("%w: opening data file: %v", domain.ErrStorageIO, err)
	}
	if s.index, err = os.OpenFile(base+IndexExt, os.O_RDWR|os.O_CREATE, 0600); err != nil {
		_ = s.data.Close()
		return nil, fmt.Errorf("%w: opening index file: %v", domain.ErrStorageIO, err)
	}
	if s.meta, err = os.OpenFile(base+MetaExt, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600); err != nil {
		_ = s.data.Close()
		_ = s.index.Close()
		return nil, fmt.Errorf("%w: opening meta file: %v", domain.ErrStorageIO, err)
	}

	info, err := s.data.Stat()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: stat data file: %v", domain.ErrStorageIO, err)
	}
	s.end = info.Size()

	return s, nil
}

// OpenLevels opens one store per storage level under dir.
func OpenLevels(dir string) (map[domain.Level]driven.BlobStore, error) {
	stores := make(map[domain.Level]driven.BlobStore, len(domain.StorageLevels))
	for _, level := range domain.StorageLevels {
		s, err := Open(dir, BaseName(level))
		if err != nil {
			for _, opened := range stores {
				_ = opened.Close()
			}
			return nil, fmt.Errorf("opening %s blob store: %w", level, err)
		}
		stores[level] = s
	}
	return stores, nil
}

// Path returns the base path shared by the three files.
func (s *Store) Path() string {
	return s.base
}

// Save appends data, writes the index record for id and appends a
// metadata line. The index record and metadata line are written only once
// the bytes are in place. Until then Entry reports the previous record for
// id, a zero record for a sparse id, or ErrNotFound past the index end.
// A failed data write leaves its reserved range unreferenced.
func (s *Store) Save(id int64, data []byte, meta domain.BlobMeta) error {
	if id < 1 {
		return fmt.Errorf("%w: blob id %d", domain.ErrInvalidInput, id)
	}

	length := int64(len(data))
	offset := s.reserve(length)

	if length > 0 {
		if _, err := s.data.WriteAt(data, offset); err != nil {
			return fmt.Errorf("%w: writing %d bytes at %d: %v", domain.ErrStorageIO, length, offset, err)
		}
	}

	return s.commit(id, offset, length, meta)
}

// reserve claims [end, end+length).
func (s *Store) reserve(length int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset := s.end
	s.end += length
	return offset
}

// commit records [offset, offset+length) for id.
func (s *Store) commit(id, offset, length int64, meta domain.BlobMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var record [recordSize]byte
	binary.BigEndian.PutUint64(record[:8], uint64(offset))
	binary.BigEndian.PutUint64(record[8:], uint64(length))

	// Writing past the end zero-fills the gap, so sparse ids read back as (0, 0).
	if _, err := s.index.WriteAt(record[:], (id-1)*recordSize); err != nil {
		return fmt.Errorf("%w: writing index record %d: %v", domain.ErrStorageIO, id, err)
	}

	if _, err := io.WriteString(s.meta, formatMeta(id, meta)); err != nil {
		return fmt.Errorf("%w: appending meta line %d: %v", domain.ErrStorageIO, id, err)
	}
	return nil
}

// Read returns exactly length bytes at offset.
func (s *Store) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("%w: range %d+%d", domain.ErrInvalidInput, offset, length)
	}

	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}

	n, err := s.data.ReadAt(buf, offset)
	if n < len(buf) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: reading %d bytes at %d: got %d: %v", domain.ErrStorageIO, length, offset, n, err)
	}
	return buf, nil
}

// Entry decodes the index record for id.
func (s *Store) Entry(id int64) (domain.IndexEntry, error) {
	if id < 1 {
		return domain.IndexEntry{}, fmt.Errorf("%w: blob id %d", domain.ErrNotFound, id)
	}

	var record [recordSize]byte
	n, err := s.index.ReadAt(record[:], (id-1)*recordSize)
	if n < recordSize {
		if err == nil || errors.Is(err, io.EOF) {
			return domain.IndexEntry{}, fmt.Errorf("%w: index record %d", domain.ErrNotFound, id)
		}
		return domain.IndexEntry{}, fmt.Errorf("%w: reading index record %d: %v", domain.ErrStorageIO, id, err)
	}

	return domain.IndexEntry{
		Offset: int64(binary.BigEndian.Uint64(record[:8])),
		Length: int64(binary.BigEndian.Uint64(record[8:])),
	}, nil
}

// Offset returns the data offset recorded for id.
func (s *Store) Offset(id int64) (int64, error) {
	e, err := s.Entry(id)
	return e.Offset, err
}

// Length returns the blob length recorded for id.
func (s *Store) Length(id int64) (int64, error) {
	e, err := s.Entry(id)
	return e.Length, err
}

// ReadID reads the blob recorded for id.
func (s *Store) ReadID(id int64) ([]byte, error) {
	e, err := s.Entry(id)
	if err != nil {
		return nil, err
	}
	return s.Read(e.Offset, e.Length)
}

// AllMeta parses every line of the metadata log.
func (s *Store) AllMeta() (map[int64]domain.BlobMeta, error) {
	// Lines are appended under mu, so holding it excludes a half-written tail.
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.base + MetaExt)
	if err != nil {
		return nil, fmt.Errorf("%w: opening meta file: %v", domain.ErrStorageIO, err)
	}
	defer f.Close()

	return parseMeta(f)
}

// Close closes the three files.
func (s *Store) Close() error {
	var errs []error
	for _, f := range []*os.File{s.data, s.index, s.meta} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: closing %s: %v", domain.ErrStorageIO, s.base, err)
	}
	return nil
}

var metaReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func formatMeta(id int64, m domain.BlobMeta) string {
	fields := []string{
		strconv.FormatInt(id, 10),
		metaReplacer.Replace(m.Meta),
		metaReplacer.Replace(m.Indexer),
		metaReplacer.Replace(m.ContentType),
		strconv.FormatInt(m.LastChangeTime, 10),
		metaReplacer.Replace(m.URL),
	}
	return strings.Join(fields, "\t") + "\n"
}

func parseMeta(r io.Reader) (map[int64]domain.BlobMeta, error) {
	result := make(map[int64]domain.BlobMeta)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMetaLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != metaFields {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d",
				domain.ErrMalformedMetadata, lineNo, len(fields), metaFields)
		}

		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: id %q", domain.ErrMalformedMetadata, lineNo, fields[0])
		}
		changed, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: lastChangeTime %q", domain.ErrMalformedMetadata, lineNo, fields[4])
		}

		result[id] = domain.BlobMeta{
			Meta:           fields[1],
			Indexer:        fields[2],
			ContentType:    fields[3],
			LastChangeTime: changed,
			URL:            fields[5],
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanning meta file: %v", domain.ErrStorageIO, err)
	}

	return result, nil
}
