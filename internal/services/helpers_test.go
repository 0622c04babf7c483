package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/config"
	"github.com/dmitrijs2005/notevault/internal/logging"
	"github.com/dmitrijs2005/notevault/internal/metrics"
	"github.com/dmitrijs2005/notevault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/notevault/internal/testutil/sqlitetest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

// fakeMedia is an in-memory media.Repository with failure injection.
type fakeMedia struct {
	mu        sync.Mutex
	objects   map[string][]byte
	seq       int
	storeErr  error
	removeErr error
	removed   []string

	// onRemove runs after each Remove, outside the lock.
	onRemove func(ref string)
}

func newFakeMedia() *fakeMedia { return &fakeMedia{objects: map[string][]byte{}} }

func (f *fakeMedia) Store(_ context.Context, content io.Reader, suggestedID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return "", f.storeErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	ref := suggestedID
	if ref == "" {
		f.seq++
		ref = fmt.Sprintf("obj-%d", f.seq)
	}
	f.objects[ref] = data
	return ref, nil
}

func (f *fakeMedia) Remove(_ context.Context, ref string) (bool, error) {
	f.mu.Lock()
	if f.removeErr != nil {
		f.mu.Unlock()
		return false, f.removeErr
	}
	f.removed = append(f.removed, ref)
	_, ok := f.objects[ref]
	delete(f.objects, ref)
	hook := f.onRemove
	f.mu.Unlock()

	if hook != nil {
		hook(ref)
	}
	return ok, nil
}

func (f *fakeMedia) Exists(_ context.Context, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[ref]
	return ok, nil
}

func (f *fakeMedia) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[ref]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeMedia) has(ref string) bool {
	ok, _ := f.Exists(context.Background(), ref)
	return ok
}

type testEnv struct {
	db      *sql.DB
	vault   *VaultService
	media   *fakeMedia
	logs    *observer.ObservedLogs
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := sqlitetest.Open(t)
	rm, err := repomanager.NewSQLiteRepositoryManager(db)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	log := logging.NewZapLogger(zap.New(core))
	met := metrics.New(prometheus.NewRegistry())
	fm := newFakeMedia()

	var seq atomic.Int64
	orig := newMediaID
	newMediaID = func() string { return fmt.Sprintf("m%d", seq.Add(1)) }
	t.Cleanup(func() { newMediaID = orig })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost

	return &testEnv{
		db:      db,
		vault:   NewVaultService(db, rm, fm, log, met, cfg),
		media:   fm,
		logs:    logs,
		metrics: met,
	}
}

// login registers userName (if needed) and binds externalID to it.
func (e *testEnv) login(t *testing.T, externalID int64, userName string) {
	t.Helper()
	ctx := context.Background()
	_, err := e.vault.Register(ctx, externalID, userName, "secret1")
	if errors.Is(err, common.ErrorAlreadyExists) {
		_, err = e.vault.Login(ctx, externalID, userName, "secret1")
	}
	require.NoError(t, err)
}

func (e *testEnv) addText(t *testing.T, externalID int64, keyword, text, group string) {
	t.Helper()
	_, err := e.vault.AddNote(context.Background(), externalID, NoteDraft{
		Keyword: keyword, Type: "text", Text: text, Group: group,
	})
	require.NoError(t, err)
}
