package bundle

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"github.com/kokistudios/mood/internal/table"
	"github.com/kokistudios/mood/internal/ui"
)

// Extension is appended to bundle paths that lack it.
const Extension = ".mood"

const manifestName = "manifest.yaml"

// BundleManifest describes the contents of a .mood bundle.
type BundleManifest struct {
	Version    string    `yaml:"version"`
	ExportedAt time.Time `yaml:"exported_at"`
	ExportedBy string    `yaml:"exported_by"`
	EntryCount int       `yaml:"entry_count"`
	DataFile   string    `yaml:"data_file"`
}

// Export writes the entry table at dataPath into a gzip tar at outputPath.
// An empty outputPath or a directory gets a dated default name. Returns the path written.
func Export(dataPath, outputPath, exportedBy string) (string, error) {
	t, err := table.Load(dataPath)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	defaultName := fmt.Sprintf("mood-%s%s", now.Format("20060102-150405"), Extension)
	if outputPath == "" {
		outputPath = defaultName
	}
	// If outputPath is a directory, append the default filename
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		outputPath = filepath.Join(outputPath, defaultName)
	} else if !strings.HasSuffix(outputPath, Extension) {
		outputPath += Extension
	}

	var csvData bytes.Buffer
	if err := table.Encode(&csvData, t); err != nil {
		return "", fmt.Errorf("failed to encode entries: %w", err)
	}

	manifest := BundleManifest{
		Version:    "1",
		ExportedAt: now,
		ExportedBy: exportedBy,
		EntryCount: len(t),
		DataFile:   table.DefaultFile,
	}
	manifestData, err := yaml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	gw := gzip.NewWriter(outFile)
	tw := tar.NewWriter(gw)

	if err := writeFile(tw, manifestName, manifestData, now); err != nil {
		return "", err
	}
	if err := writeFile(tw, manifest.DataFile, csvData.Bytes(), now); err != nil {
		return "", err
	}
	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish gzip: %w", err)
	}

	ui.Logger.Debug("Bundle exported", "path", outputPath, "entries", len(t))
	return outputPath, nil
}

func writeFile(tw *tar.Writer, name string, content []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Size:    int64(len(content)),
		Mode:    0644,
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header: %w", err)
	}
	if _, err := tw.Write(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// ImportResult contains information about an imported bundle.
type ImportResult struct {
	OriginalAuthor string
	ExportedAt     time.Time
	Imported       int
	Total          int
	Replaced       bool
}

// Contents is a bundle read fully into memory.
type Contents struct {
	Manifest BundleManifest
	Entries  table.Table
}

// Read parses a bundle and decodes its entry table.
func Read(bundlePath string) (*Contents, error) {
	files, err := readAll(bundlePath)
	if err != nil {
		return nil, err
	}

	raw, ok := files[manifestName]
	if !ok {
		return nil, fmt.Errorf("invalid bundle: missing manifest")
	}
	var manifest BundleManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.DataFile == "" {
		manifest.DataFile = table.DefaultFile
	}

	data, ok := files[manifest.DataFile]
	if !ok {
		return nil, fmt.Errorf("invalid bundle: missing %s", manifest.DataFile)
	}
	t, err := table.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid bundle data: %w", err)
	}
	if manifest.EntryCount != len(t) {
		return nil, fmt.Errorf("invalid bundle: manifest lists %d entries, found %d", manifest.EntryCount, len(t))
	}
	return &Contents{Manifest: manifest, Entries: t}, nil
}

// Import validates every bundled row, then appends them to the table at dataPath
// or, with replace, overwrites it. Nothing is written if any row is invalid.
func Import(dataPath, bundlePath string, replace bool) (*ImportResult, error) {
	c, err := Read(bundlePath)
	if err != nil {
		return nil, err
	}
	if problems := table.Verify(c.Entries); len(problems) > 0 {
		p := problems[0]
		return nil, fmt.Errorf("bundle row %d: %s (%d invalid rows)", p.Row, p.Message, len(problems))
	}

	var t table.Table
	if replace {
		t = c.Entries
	} else {
		existing, err := table.LoadOrEmpty(dataPath)
		if err != nil {
			return nil, err
		}
		t = append(existing, c.Entries...)
	}
	if err := table.Persist(dataPath, t); err != nil {
		return nil, err
	}

	return &ImportResult{
		OriginalAuthor: c.Manifest.ExportedBy,
		ExportedAt:     c.Manifest.ExportedAt,
		Imported:       len(c.Entries),
		Total:          len(t),
		Replaced:       replace,
	}, nil
}

// ReadManifest reads only the manifest from a bundle without decoding entries.
func ReadManifest(bundlePath string) (*BundleManifest, error) {
	inFile, err := os.Open(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer inFile.Close()

	gr, err := gzip.NewReader(inFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar: %w", err)
		}

		if header.Name == manifestName {
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("failed to read manifest: %w", err)
			}
			var manifest BundleManifest
			if err := yaml.Unmarshal(content, &manifest); err != nil {
				return nil, fmt.Errorf("failed to parse manifest: %w", err)
			}
			return &manifest, nil
		}
	}

	return nil, fmt.Errorf("manifest not found in bundle")
}

func readAll(bundlePath string) (map[string][]byte, error) {
	inFile, err := os.Open(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer inFile.Close()

	gr, err := gzip.NewReader(inFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	files := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar: %w", err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", header.Name, err)
		}
		files[header.Name] = content
	}
	return files, nil
}
