package vectorstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/blevesearch/mmap-go"
	"github.com/dustin/go-humanize"

	"github.com/tokoba/codanna-go/internal/ids"
)

const segmentFileName = "segment_0.vec"
const metaFileName = "metadata.json"
const bookkeepingFileName = "bookkeeping.gob"

// segmentMetadata is the small human-readable sidecar describing a
// persisted vector segment: dimensionality, IVF settings, vector count
// and segment size, enough for a caller to sanity-check compatibility
// before Open.
type segmentMetadata struct {
	Dimensions  int    `json:"dimensions"`
	NumClusters int    `json:"num_clusters"`
	NProbe      int    `json:"nprobe"`
	VectorCount int    `json:"vector_count"`
	SizeHuman   string `json:"size_human"`
}

type bookkeeping struct {
	Clusters  []ids.ClusterId
	Live      map[ids.VectorId]int
	Centroids [][]float32
	Trained   bool
}

// Persist writes the vector segment, its centroids/cluster bookkeeping,
// and a metadata.json sidecar to dir, using an atomic tmp-then-rename
// for each file, matching the teacher's HNSWStore.Save durability
// shape. Vectors are stored as fixed-width little-endian float32 rows
// so the segment file can be mmap'd directly on Open.
func (s *Store) Persist(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vectorstore: create dir: %w", err)
	}

	segPath := filepath.Join(dir, segmentFileName)
	if err := writeSegment(segPath, s.vectors, s.config.Dimensions); err != nil {
		return fmt.Errorf("vectorstore: write segment: %w", err)
	}

	bk := bookkeeping{
		Clusters:  s.clusters,
		Live:      s.live,
		Centroids: s.centroids,
		Trained:   s.trained,
	}
	if err := writeGobAtomic(filepath.Join(dir, bookkeepingFileName), bk); err != nil {
		return fmt.Errorf("vectorstore: write bookkeeping: %w", err)
	}

	info, err := os.Stat(segPath)
	var size int64
	if err == nil {
		size = info.Size()
	}
	meta := segmentMetadata{
		Dimensions:  s.config.Dimensions,
		NumClusters: s.config.NumClusters,
		NProbe:      s.config.NProbe,
		VectorCount: len(s.live),
		SizeHuman:   humanize.Bytes(uint64(size)),
	}
	if err := writeJSONAtomic(filepath.Join(dir, metaFileName), meta); err != nil {
		return fmt.Errorf("vectorstore: write metadata: %w", err)
	}

	slog.Debug("vectorstore persisted",
		slog.String("dir", dir),
		slog.Int("vectors", len(s.live)),
		slog.String("size", meta.SizeHuman))
	return nil
}

// Open reads a segment previously written by Persist. The segment file
// is mmap'd to validate it can be read back without a full copy, then
// materialized into in-memory rows for the (modest, codebase-scale)
// working set this store targets.
func Open(dir string) (*Store, error) {
	var meta segmentMetadata
	metaBytes, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: read metadata: %w", err)
	}
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("vectorstore: parse metadata: %w", err)
	}

	segPath := filepath.Join(dir, segmentFileName)
	f, err := os.Open(segPath)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open segment: %w", err)
	}
	defer f.Close()

	var vectors [][]float32
	if info, statErr := f.Stat(); statErr == nil && info.Size() > 0 {
		mapped, mmapErr := mmap.Map(f, mmap.RDONLY, 0)
		if mmapErr != nil {
			return nil, fmt.Errorf("vectorstore: mmap segment: %w", mmapErr)
		}
		defer mapped.Unmap()
		vectors, err = decodeSegment([]byte(mapped), meta.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("vectorstore: decode segment: %w", err)
		}
	}

	var bk bookkeeping
	bkBytes, err := os.ReadFile(filepath.Join(dir, bookkeepingFileName))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: read bookkeeping: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(bkBytes)).Decode(&bk); err != nil {
		return nil, fmt.Errorf("vectorstore: decode bookkeeping: %w", err)
	}

	return &Store{
		config: Config{
			Dimensions:  meta.Dimensions,
			NumClusters: meta.NumClusters,
			NProbe:      meta.NProbe,
		},
		vectors:   vectors,
		clusters:  bk.Clusters,
		live:      bk.Live,
		centroids: bk.Centroids,
		trained:   bk.Trained,
	}, nil
}

func writeSegment(path string, vectors [][]float32, dims int) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	buf := make([]byte, 4*dims)
	for _, v := range vectors {
		for i, x := range v {
			binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(x))
		}
		if _, err := f.Write(buf); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func decodeSegment(data []byte, dims int) ([][]float32, error) {
	if dims == 0 {
		return nil, nil
	}
	rowBytes := 4 * dims
	if len(data)%rowBytes != 0 {
		return nil, fmt.Errorf("segment size %d not a multiple of row size %d", len(data), rowBytes)
	}
	n := len(data) / rowBytes
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, dims)
		base := i * rowBytes
		for d := 0; d < dims; d++ {
			bits := binary.LittleEndian.Uint32(data[base+d*4 : base+d*4+4])
			row[d] = math.Float32frombits(bits)
		}
		vectors[i] = row
	}
	return vectors, nil
}

func writeGobAtomic(path string, v interface{}) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeJSONAtomic(path string, v interface{}) error {
	tmp := path + ".tmp"
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
