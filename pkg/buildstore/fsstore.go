package buildstore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/iver-wharf/wharf-postbuild/pkg/build"
)

const (
	buildsDirName      = "builds"
	buildFileName      = "build.json"
	logFileName        = "log"
	nextNumberFileName = "nextBuildNumber"
)

// NewFSStore creates a Store that keeps each build as a JSON file, using the
// layout:
//
//	jobs/<job>/nextBuildNumber
//	jobs/<job>/builds/<number>/build.json
//	jobs/<job>/builds/<number>/log
func NewFSStore(fs FS) Store {
	return &fsStore{fs: fs}
}

type fsStore struct {
	fs         FS
	buildMutex keyedMutex
}

func (s *fsStore) NextNumber(job string) (uint, error) {
	if err := ValidateJob(job); err != nil {
		return 0, err
	}
	file, err := s.fs.EditLocked(s.jobPath(job, nextNumberFileName))
	if err != nil {
		return 0, fmt.Errorf("open next build number file: %w", err)
	}
	defer file.Close()

	next, err := readNextNumber(file)
	if err != nil {
		return 0, fmt.Errorf("read next build number of %q: %w", job, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if err := file.Truncate(0); err != nil {
		return 0, err
	}
	if _, err := fmt.Fprintln(file, next+1); err != nil {
		return 0, fmt.Errorf("write next build number of %q: %w", job, err)
	}
	log.Debug().
		WithString("job", job).
		WithInt("number", int(next)).
		Message("Allocated build number.")
	return next, nil
}

func readNextNumber(r io.Reader) (uint, error) {
	scanner := bufio.NewScanner(r)
	scanner.Scan()
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	s := strings.TrimSpace(scanner.Text())
	if s == "" {
		return 1, nil
	}
	u64, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, err
	}
	if u64 == 0 {
		return 1, nil
	}
	return uint(u64), nil
}

func (s *fsStore) Save(b *build.Build) error {
	if err := ValidateJob(b.Job); err != nil {
		return err
	}
	s.buildMutex.Lock(b.ID())
	defer s.buildMutex.Unlock(b.ID())
	file, err := s.fs.OpenWrite(s.buildPath(b.Job, b.Number, buildFileName))
	if err != nil {
		return fmt.Errorf("open build file for writing: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode build %s: %w", b, err)
	}
	return nil
}

func (s *fsStore) Load(job string, number uint) (*build.Build, error) {
	if err := ValidateJob(job); err != nil {
		return nil, err
	}
	id := job + "#" + strconv.FormatUint(uint64(number), 10)
	s.buildMutex.Lock(id)
	defer s.buildMutex.Unlock(id)
	file, err := s.fs.OpenRead(s.buildPath(job, number, buildFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open build file for reading: %w", err)
	}
	defer file.Close()
	var b build.Build
	if err := json.NewDecoder(file).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode build %s: %w", id, err)
	}
	if b.Vars == nil {
		b.Vars = map[string]string{}
	}
	return &b, nil
}

func (s *fsStore) Numbers(job string) ([]uint, error) {
	if err := ValidateJob(job); err != nil {
		return nil, err
	}
	entries, err := s.fs.ListDirEntries(s.jobPath(job, buildsDirName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list builds of %q: %w", job, err)
	}
	var numbers []uint
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.ParseUint(e.Name(), 10, 0)
		if err != nil {
			continue
		}
		numbers = append(numbers, uint(n))
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers, nil
}

func (s *fsStore) OpenLog(b *build.Build) (io.ReadCloser, error) {
	if err := ValidateJob(b.Job); err != nil {
		return nil, err
	}
	file, err := s.fs.OpenRead(s.buildPath(b.Job, b.Number, logFileName))
	if errors.Is(err, fs.ErrNotExist) {
		// Builds that never logged anything have an empty log.
		return io.NopCloser(strings.NewReader("")), nil
	}
	return file, err
}

func (s *fsStore) AppendLog(b *build.Build) (io.WriteCloser, error) {
	if err := ValidateJob(b.Job); err != nil {
		return nil, err
	}
	return s.fs.OpenAppend(s.buildPath(b.Job, b.Number, logFileName))
}

func (s *fsStore) Close() error {
	return nil
}

func (s *fsStore) jobPath(job, name string) string {
	return "jobs/" + job + "/" + name
}

func (s *fsStore) buildPath(job string, number uint, name string) string {
	return fmt.Sprintf("jobs/%s/%s/%d/%s", job, buildsDirName, number, name)
}
