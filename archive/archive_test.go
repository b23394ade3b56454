// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/plugin/custody/badger"
	"github.com/blinklabs-io/stakegov/event"
	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(
		m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

var (
	testToken   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testCreator = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testAlice   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type fixedClock struct{}

func (fixedClock) Now() time.Time {
	return time.Unix(1_700_000_000, 0)
}

func newTestLedger(t *testing.T, eventBus *event.EventBus) *ledger.LedgerState {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	vault, err := badger.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, vault.Stop())
		require.NoError(t, db.Close())
	})
	require.NoError(t, vault.Mint(context.Background(), testToken, testAlice, uint256.NewInt(1000)))
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		Database: db,
		Custody:  vault,
		EventBus: eventBus,
		Clock:    fixedClock{},
	})
	require.NoError(t, err)
	return ls
}

func seedProject(t *testing.T, ls *ledger.LedgerState) uint {
	t.Helper()
	ctx := context.Background()
	projectID, err := ls.CreateProject(ctx, testCreator, ledger.CreateProjectParams{
		Name:             "Archive",
		GovernanceTokens: []common.Address{testToken},
	})
	require.NoError(t, err)
	require.NoError(t, ls.Stake(ctx, projectID, testToken, testAlice, uint256.NewInt(400)))
	_, err = ls.CreateProposal(ctx, projectID, testCreator, ledger.CreateProposalParams{
		Title:  "First",
		Quorum: uint256.NewInt(100),
	})
	require.NoError(t, err)
	return projectID
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ret []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		ret = append(ret, line)
	}
	require.NoError(t, scanner.Err())
	return ret
}

func TestNewSinkSchemes(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSink(context.Background(), "file://"+dir, SinkOptions{})
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)
	require.NoError(t, sink.Close())

	testDefs := []string{
		"no-scheme",
		"ftp://somewhere",
		"s3://",
		"gs:///prefix",
	}
	for _, dest := range testDefs {
		_, err := NewSink(context.Background(), dest, SinkOptions{})
		assert.Error(t, err, dest)
	}
}

func TestSplitBucketPath(t *testing.T) {
	bucket, prefix, err := splitBucketPath("my-bucket/a/b/")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "a/b/", prefix)
	bucket, prefix, err = splitBucketPath("my-bucket")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Empty(t, prefix)
}

func TestValidateCredentials(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"type":"service_account"}`), 0o600))
	require.NoError(t, validateCredentials(good))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{}`), 0o600))
	require.Error(t, validateCredentials(bad))
	require.Error(t, validateCredentials(filepath.Join(dir, "missing.json")))
}

func TestFileSinkRejectsEscapingKey(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	require.Error(t, sink.Put(context.Background(), "../outside", []byte("x")))
}

func TestExportProject(t *testing.T) {
	ls := newTestLedger(t, nil)
	projectID := seedProject(t, ls)
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	exporter := NewExporter(ls, sink, nil)

	res, err := exporter.ExportProject(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Proposals)
	assert.Equal(t, 3, res.Activities)
	require.Len(t, res.Keys, 3)

	project := readLines(t, filepath.Join(dir, "projects", "1", "project.json"))
	require.Len(t, project, 1)
	assert.Equal(t, "Archive", project[0]["name"])
	assert.Equal(t, "400", project[0]["totalStaked"])

	activities := readLines(t, filepath.Join(dir, "projects", "1", "activities.jsonl"))
	require.Len(t, activities, 3)
	assert.Equal(t, "ProjectCreated", activities[0]["type"])
	assert.Equal(t, "Staked", activities[1]["type"])
	assert.Equal(t, "400", activities[1]["amount"])

	_, err = exporter.ExportProject(context.Background(), 99)
	require.ErrorIs(t, err, ledger.ErrUnknownProject)
}

type failingSink struct {
	calls int
}

func (s *failingSink) Put(context.Context, string, []byte) error {
	s.calls++
	return assert.AnError
}

func (s *failingSink) Close() error {
	return nil
}

func TestEventArchiver(t *testing.T) {
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	archiver, err := NewEventArchiver(EventArchiverConfig{
		EventBus:      eventBus,
		Sink:          sink,
		FlushInterval: time.Hour,
	})
	require.NoError(t, err)
	archiver.Start()

	ls := newTestLedger(t, eventBus)
	seedProject(t, ls)
	// Handlers run on their own goroutines
	require.Eventually(t, func() bool {
		archiver.mu.Lock()
		defer archiver.mu.Unlock()
		return len(archiver.pending) == 3
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, archiver.Stop(context.Background()))
	// Stop is idempotent
	require.NoError(t, archiver.Stop(context.Background()))

	files, err := filepath.Glob(filepath.Join(dir, "events", "*.jsonl"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	records := readLines(t, files[0])
	require.Len(t, records, 3)
	types := make(map[string]bool)
	for _, rec := range records {
		types[rec["type"].(string)] = true
	}
	assert.True(t, types[string(event.ProjectCreatedEventType)])
	assert.True(t, types[string(event.StakedEventType)])
	assert.True(t, types[string(event.ProposalCreatedEventType)])
}

func TestEventArchiverRetainsFailedBatch(t *testing.T) {
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	sink := &failingSink{}
	archiver, err := NewEventArchiver(EventArchiverConfig{
		EventBus: eventBus,
		Sink:     sink,
	})
	require.NoError(t, err)
	archiver.handleEvent(event.NewEvent(event.VotedEventType, event.VoteEvent{}))
	require.ErrorIs(t, archiver.Flush(context.Background()), assert.AnError)
	require.ErrorIs(t, archiver.Flush(context.Background()), assert.AnError)
	assert.Equal(t, 2, sink.calls)
	assert.Len(t, archiver.pending, 1)
}

func TestNewEventArchiverValidation(t *testing.T) {
	_, err := NewEventArchiver(EventArchiverConfig{Sink: &failingSink{}})
	require.Error(t, err)
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	_, err = NewEventArchiver(EventArchiverConfig{EventBus: eventBus})
	require.Error(t, err)
}
