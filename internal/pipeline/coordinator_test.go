package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/providers/veo"
)

const assetBase = "https://assets.example"

type memGenerations struct {
	mu   sync.Mutex
	rows map[string]*domain.Generation
}

func newMemGenerations() *memGenerations {
	return &memGenerations{rows: map[string]*domain.Generation{}}
}

func (m *memGenerations) Create(_ context.Context, gen *domain.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	gen.CreatedAt = now
	gen.UpdatedAt = now
	cp := *gen
	m.rows[gen.ID] = &cp
	return nil
}

func (m *memGenerations) GetByID(_ context.Context, id string) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *gen
	return &cp, nil
}

func (m *memGenerations) Update(_ context.Context, id string, patch domain.GenerationPatch) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.ProductImageURL != nil {
		gen.ProductImageURL = *patch.ProductImageURL
	}
	if patch.Status != nil {
		gen.Status = *patch.Status
	}
	if patch.CurrentStep != nil {
		gen.CurrentStep = *patch.CurrentStep
	}
	if patch.PaymentStatus != nil {
		gen.PaymentStatus = *patch.PaymentStatus
	}
	if patch.PaymentIntentID != nil {
		gen.PaymentIntentID = *patch.PaymentIntentID
	}
	if patch.CanvasImageURL != nil {
		gen.CanvasImageURL = *patch.CanvasImageURL
	}
	if patch.VideoOperationName != nil {
		gen.VideoOperationName = *patch.VideoOperationName
	}
	if patch.VideoURL != nil {
		gen.VideoURL = *patch.VideoURL
	}
	if patch.Error != nil {
		gen.Error = *patch.Error
	}
	gen.UpdatedAt = time.Now()
	cp := *gen
	return &cp, nil
}

type memImages struct {
	mu   sync.Mutex
	rows []domain.GeneratedImage
}

func (m *memImages) Upsert(_ context.Context, img *domain.GeneratedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].GenerationID == img.GenerationID && m.rows[i].Position == img.Position {
			m.rows[i].ImageURL = img.ImageURL
			return nil
		}
	}
	img.CreatedAt = time.Now()
	m.rows = append(m.rows, *img)
	return nil
}

func (m *memImages) ListByGenerationID(_ context.Context, generationID string) ([]domain.GeneratedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GeneratedImage
	for _, row := range m.rows {
		if row.GenerationID == generationID {
			out = append(out, row)
		}
	}
	return out, nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return assetBase + "/" + key, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (m *memStore) ResolveKey(url string) string {
	return strings.TrimPrefix(url, assetBase+"/")
}

type fakeScraper struct {
	imageURL string
	err      error
}

func (f *fakeScraper) ScrapeProductImage(context.Context, string) (string, error) {
	return f.imageURL, f.err
}

type fakeFetcher struct {
	data     []byte
	mimeType string
	err      error
}

func (f *fakeFetcher) FetchImage(context.Context, string) ([]byte, string, error) {
	return f.data, f.mimeType, f.err
}

type fakeCanvas struct {
	data []byte
	err  error
}

func (f *fakeCanvas) GenerateCanvas(context.Context, []byte, string) ([]byte, error) {
	return f.data, f.err
}

type fakeQuadrants struct {
	calls int
	err   error
}

func (f *fakeQuadrants) ExtractQuadrant(_ context.Context, _ []byte, position domain.Position) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf("%s-%d", position, f.calls)), nil
}

type fakeVideo struct {
	operationName string
	startErr      error
	startRefs     []veo.ReferenceImage
	polls         []*veo.PollResult
	pollErr       error
	pollCount     int
	videoData     []byte
	downloadErr   error
}

func (f *fakeVideo) Start(_ context.Context, original veo.ReferenceImage, references []veo.ReferenceImage) (string, error) {
	f.startRefs = append([]veo.ReferenceImage{original}, references...)
	return f.operationName, f.startErr
}

func (f *fakeVideo) Poll(context.Context, string) (*veo.PollResult, error) {
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	result := f.polls[f.pollCount]
	if f.pollCount < len(f.polls)-1 {
		f.pollCount++
	}
	return result, nil
}

func (f *fakeVideo) Download(context.Context, string) ([]byte, error) {
	return f.videoData, f.downloadErr
}

type fixture struct {
	coordinator *Coordinator
	generations *memGenerations
	images      *memImages
	store       *memStore
	scraper     *fakeScraper
	fetcher     *fakeFetcher
	canvas      *fakeCanvas
	quadrants   *fakeQuadrants
	video       *fakeVideo
}

func newFixture() *fixture {
	f := &fixture{
		generations: newMemGenerations(),
		images:      &memImages{},
		store:       newMemStore(),
		scraper:     &fakeScraper{imageURL: "https://cdn.example/42.png"},
		fetcher:     &fakeFetcher{data: []byte("product-bytes"), mimeType: "image/png"},
		canvas:      &fakeCanvas{data: []byte("canvas-bytes")},
		quadrants:   &fakeQuadrants{},
		video: &fakeVideo{
			operationName: "operations/op-1",
			polls:         []*veo.PollResult{{Done: true, VideoURI: "https://video.example/out.mp4"}},
			videoData:     []byte("mp4-bytes"),
		},
	}
	f.coordinator = NewCoordinator(Deps{
		Generations: f.generations,
		Images:      f.images,
		Scraper:     f.scraper,
		Fetcher:     f.fetcher,
		Canvas:      f.canvas,
		Quadrants:   f.quadrants,
		Video:       f.video,
		Store:       f.store,
		Logger:      zerolog.Nop(),
	})
	return f
}

func TestCreateRequiresSource(t *testing.T) {
	f := newFixture()

	_, err := f.coordinator.Create(context.Background(), CreateParams{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.generations.rows) != 0 {
		t.Fatalf("rejected generation must not be persisted")
	}
}

func TestCreateRejectsMalformedProductURL(t *testing.T) {
	f := newFixture()

	_, err := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "not a url"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateInitialState(t *testing.T) {
	f := newFixture()

	gen, err := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gen.ID == "" {
		t.Fatalf("expected generated id")
	}
	if gen.Status != domain.StatusPaymentRequired {
		t.Fatalf("status = %q", gen.Status)
	}
	if gen.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("payment status = %q", gen.PaymentStatus)
	}
}

func TestScrapePersistsImageURL(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	result, err := f.coordinator.Scrape(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if result.ImageURL != "https://cdn.example/42.png" {
		t.Fatalf("image url = %q", result.ImageURL)
	}
	if string(result.Data) != "product-bytes" {
		t.Fatalf("data = %q", result.Data)
	}

	stored, _ := f.generations.GetByID(context.Background(), gen.ID)
	if stored.ProductImageURL != "https://cdn.example/42.png" {
		t.Fatalf("persisted image url = %q", stored.ProductImageURL)
	}
	if stored.CurrentStep != domain.StepScraping {
		t.Fatalf("current step = %q", stored.CurrentStep)
	}
}

func TestScrapeWithoutProductURL(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductImageURL: "https://cdn.example/direct.png"})

	_, err := f.coordinator.Scrape(context.Background(), gen.ID)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageFailureRecordsError(t *testing.T) {
	f := newFixture()
	f.scraper.err = errors.New("page unreachable")
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	_, err := f.coordinator.Scrape(context.Background(), gen.ID)
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}

	stored, _ := f.generations.GetByID(context.Background(), gen.ID)
	if stored.Status != domain.StatusFailed {
		t.Fatalf("status = %q", stored.Status)
	}
	if !strings.Contains(stored.Error, "page unreachable") {
		t.Fatalf("error = %q", stored.Error)
	}
}

func TestSuccessfulStageClearsPriorError(t *testing.T) {
	f := newFixture()
	f.scraper.err = errors.New("transient failure")
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	if _, err := f.coordinator.Scrape(context.Background(), gen.ID); err == nil {
		t.Fatalf("expected first scrape to fail")
	}

	f.scraper.err = nil
	if _, err := f.coordinator.Scrape(context.Background(), gen.ID); err != nil {
		t.Fatalf("second scrape: %v", err)
	}

	stored, _ := f.generations.GetByID(context.Background(), gen.ID)
	if stored.Error != "" {
		t.Fatalf("error should be cleared, got %q", stored.Error)
	}
}

func TestGenerateCanvasStoresArtifact(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})
	if _, err := f.coordinator.Scrape(context.Background(), gen.ID); err != nil {
		t.Fatalf("scrape: %v", err)
	}

	result, err := f.coordinator.GenerateCanvas(context.Background(), gen.ID, nil, "")
	if err != nil {
		t.Fatalf("generate canvas: %v", err)
	}
	wantURL := assetBase + "/generations/" + gen.ID + "/canvas.png"
	if result.CanvasURL != wantURL {
		t.Fatalf("canvas url = %q, want %q", result.CanvasURL, wantURL)
	}

	data, err := f.store.Get(context.Background(), "generations/"+gen.ID+"/canvas.png")
	if err != nil || string(data) != "canvas-bytes" {
		t.Fatalf("stored canvas = %q err = %v", data, err)
	}

	stored, _ := f.generations.GetByID(context.Background(), gen.ID)
	if stored.CanvasImageURL != wantURL {
		t.Fatalf("persisted canvas url = %q", stored.CanvasImageURL)
	}
}

func TestGenerateCanvasWithoutSource(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	_, err := f.coordinator.GenerateCanvas(context.Background(), gen.ID, nil, "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractQuadrantRejectsUnknownPosition(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	_, err := f.coordinator.ExtractQuadrant(context.Background(), gen.ID, "center", nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractQuadrantReplacesPosition(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	for _, position := range domain.Positions {
		if _, err := f.coordinator.ExtractQuadrant(context.Background(), gen.ID, position, []byte("canvas")); err != nil {
			t.Fatalf("extract %s: %v", position, err)
		}
	}
	// A repeat extraction for an existing position replaces, never duplicates.
	if _, err := f.coordinator.ExtractQuadrant(context.Background(), gen.ID, domain.PositionTopLeft, []byte("canvas")); err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	images, _ := f.images.ListByGenerationID(context.Background(), gen.ID)
	if len(images) != 4 {
		t.Fatalf("images = %d, want 4", len(images))
	}
	seen := map[domain.Position]bool{}
	for _, img := range images {
		if seen[img.Position] {
			t.Fatalf("duplicate position %s", img.Position)
		}
		seen[img.Position] = true
	}
}

func TestStartVideoRequiresEnoughImages(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})
	if _, err := f.coordinator.Scrape(context.Background(), gen.ID); err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if _, err := f.coordinator.ExtractQuadrant(context.Background(), gen.ID, domain.PositionTopLeft, []byte("canvas")); err != nil {
		t.Fatalf("extract: %v", err)
	}

	_, err := f.coordinator.StartVideo(context.Background(), gen.ID)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error with one image, got %v", err)
	}
}

func TestStartVideoUsesCanonicalReferenceOrder(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})
	if _, err := f.coordinator.Scrape(context.Background(), gen.ID); err != nil {
		t.Fatalf("scrape: %v", err)
	}
	// Extract out of canonical order; reference selection must still pick
	// top-left then top-right.
	for _, position := range []domain.Position{domain.PositionBottomRight, domain.PositionTopRight, domain.PositionTopLeft} {
		if _, err := f.coordinator.ExtractQuadrant(context.Background(), gen.ID, position, []byte("canvas")); err != nil {
			t.Fatalf("extract %s: %v", position, err)
		}
	}

	result, err := f.coordinator.StartVideo(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("start video: %v", err)
	}
	if result.OperationName != "operations/op-1" {
		t.Fatalf("operation = %q", result.OperationName)
	}

	if len(f.video.startRefs) != 3 {
		t.Fatalf("references = %d, want original + 2", len(f.video.startRefs))
	}
	if string(f.video.startRefs[0].Data) != "product-bytes" {
		t.Fatalf("first reference should be the original image")
	}
	if !strings.HasPrefix(string(f.video.startRefs[1].Data), "top-left") {
		t.Fatalf("second reference = %q, want top-left quadrant", f.video.startRefs[1].Data)
	}
	if !strings.HasPrefix(string(f.video.startRefs[2].Data), "top-right") {
		t.Fatalf("third reference = %q, want top-right quadrant", f.video.startRefs[2].Data)
	}

	stored, _ := f.generations.GetByID(context.Background(), gen.ID)
	if stored.VideoOperationName != "operations/op-1" {
		t.Fatalf("persisted operation = %q", stored.VideoOperationName)
	}
}

func TestPollVideoWithoutOperation(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	_, err := f.coordinator.PollVideo(context.Background(), gen.ID)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPollVideoNotDoneMutatesNothing(t *testing.T) {
	f := newFixture()
	f.video.polls = []*veo.PollResult{{Done: false}}
	gen := startedGeneration(t, f)

	before, _ := f.generations.GetByID(context.Background(), gen.ID)
	result, err := f.coordinator.PollVideo(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if result.Done {
		t.Fatalf("expected not done")
	}

	after, _ := f.generations.GetByID(context.Background(), gen.ID)
	if after.Status != before.Status || after.VideoURL != before.VideoURL || after.Error != before.Error {
		t.Fatalf("non-terminal poll mutated the record: before %+v after %+v", before, after)
	}
}

func TestPollVideoTerminalFailure(t *testing.T) {
	f := newFixture()
	f.video.polls = []*veo.PollResult{{Done: true, Error: "safety filter triggered"}}
	gen := startedGeneration(t, f)

	result, err := f.coordinator.PollVideo(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !result.Done || result.Error != "safety filter triggered" {
		t.Fatalf("unexpected result %+v", result)
	}

	stored, _ := f.generations.GetByID(context.Background(), gen.ID)
	if stored.Status != domain.StatusFailed {
		t.Fatalf("status = %q", stored.Status)
	}
	if stored.Error != "safety filter triggered" {
		t.Fatalf("error = %q", stored.Error)
	}
}

func TestPollVideoTransportFailure(t *testing.T) {
	f := newFixture()
	f.video.pollErr = errors.New("connection reset")
	gen := startedGeneration(t, f)

	_, err := f.coordinator.PollVideo(context.Background(), gen.ID)
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
	stored, _ := f.generations.GetByID(context.Background(), gen.ID)
	if stored.Status != domain.StatusFailed {
		t.Fatalf("status = %q", stored.Status)
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	f := newFixture()
	f.video.polls = []*veo.PollResult{
		{Done: false},
		{Done: true, VideoURI: "https://video.example/out.mp4"},
	}
	ctx := context.Background()

	gen, err := f.coordinator.Create(ctx, CreateParams{ProductURL: "https://shop.example/item/42"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.coordinator.Scrape(ctx, gen.ID); err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if _, err := f.coordinator.GenerateCanvas(ctx, gen.ID, nil, ""); err != nil {
		t.Fatalf("canvas: %v", err)
	}
	for _, position := range domain.Positions {
		if _, err := f.coordinator.ExtractQuadrant(ctx, gen.ID, position, nil); err != nil {
			t.Fatalf("extract %s: %v", position, err)
		}
	}
	if _, err := f.coordinator.StartVideo(ctx, gen.ID); err != nil {
		t.Fatalf("start video: %v", err)
	}

	first, err := f.coordinator.PollVideo(ctx, gen.ID)
	if err != nil || first.Done {
		t.Fatalf("first poll done = %v err = %v", first.Done, err)
	}

	second, err := f.coordinator.PollVideo(ctx, gen.ID)
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	wantVideoURL := assetBase + "/generations/" + gen.ID + "/product-360.mp4"
	if !second.Done || second.VideoURL != wantVideoURL {
		t.Fatalf("unexpected result %+v", second)
	}

	data, err := f.store.Get(ctx, "generations/"+gen.ID+"/product-360.mp4")
	if err != nil || string(data) != "mp4-bytes" {
		t.Fatalf("stored video = %q err = %v", data, err)
	}

	stored, _ := f.generations.GetByID(ctx, gen.ID)
	if stored.Status != domain.StatusCompleted {
		t.Fatalf("status = %q", stored.Status)
	}
	if stored.VideoURL != wantVideoURL {
		t.Fatalf("video url = %q", stored.VideoURL)
	}
	if stored.Error != "" {
		t.Fatalf("error = %q", stored.Error)
	}

	detail, err := f.coordinator.Get(ctx, gen.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Images) != 4 {
		t.Fatalf("images = %d", len(detail.Images))
	}
}

func TestUpdateMetaValidatesEnums(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	bogus := domain.Status("archived")
	if _, err := f.coordinator.UpdateMeta(context.Background(), gen.ID, UpdateMetaParams{Status: &bogus}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	processing := domain.StatusProcessing
	paid := domain.PaymentStatusCompleted
	intent := "pi_123"
	updated, err := f.coordinator.UpdateMeta(context.Background(), gen.ID, UpdateMetaParams{
		Status:          &processing,
		PaymentStatus:   &paid,
		PaymentIntentID: &intent,
	})
	if err != nil {
		t.Fatalf("update meta: %v", err)
	}
	if updated.Status != domain.StatusProcessing || updated.PaymentStatus != domain.PaymentStatusCompleted || updated.PaymentIntentID != "pi_123" {
		t.Fatalf("unexpected record %+v", updated)
	}
}

func TestGetUnknownGeneration(t *testing.T) {
	f := newFixture()
	if _, err := f.coordinator.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUploadValidatesContentType(t *testing.T) {
	f := newFixture()

	_, err := f.coordinator.Upload(context.Background(), UploadParams{
		Filename:    "malware.exe",
		ContentType: "application/octet-stream",
		Data:        []byte("x"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadStoresImage(t *testing.T) {
	f := newFixture()

	result, err := f.coordinator.Upload(context.Background(), UploadParams{
		Filename:    "product.webp",
		ContentType: "image/webp",
		Data:        []byte("webp-bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.UploadID == "" {
		t.Fatalf("expected upload id")
	}
	wantURL := assetBase + "/uploads/" + result.UploadID + "/original.webp"
	if result.ImageURL != wantURL {
		t.Fatalf("image url = %q, want %q", result.ImageURL, wantURL)
	}

	data, err := f.store.Get(context.Background(), "uploads/"+result.UploadID+"/original.webp")
	if err != nil || string(data) != "webp-bytes" {
		t.Fatalf("stored upload = %q err = %v", data, err)
	}
}

func TestSourceImageReadsFromStore(t *testing.T) {
	f := newFixture()
	gen, _ := f.coordinator.Create(context.Background(), CreateParams{ProductURL: "https://shop.example/item/42"})

	url, err := f.store.Put(context.Background(), "uploads/u1/original.png", []byte("source"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := f.generations.Update(context.Background(), gen.ID, domain.GenerationPatch{ProductImageURL: &url}); err != nil {
		t.Fatalf("update: %v", err)
	}

	payload, err := f.coordinator.SourceImage(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("source image: %v", err)
	}
	if string(payload.Data) != "source" || payload.MimeType != "image/png" {
		t.Fatalf("payload = %q mime = %q", payload.Data, payload.MimeType)
	}
}

// startedGeneration walks a fresh generation up to a started video operation.
func startedGeneration(t *testing.T, f *fixture) *domain.Generation {
	t.Helper()
	ctx := context.Background()
	gen, err := f.coordinator.Create(ctx, CreateParams{ProductURL: "https://shop.example/item/42"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.coordinator.Scrape(ctx, gen.ID); err != nil {
		t.Fatalf("scrape: %v", err)
	}
	for _, position := range []domain.Position{domain.PositionTopLeft, domain.PositionTopRight} {
		if _, err := f.coordinator.ExtractQuadrant(ctx, gen.ID, position, []byte("canvas")); err != nil {
			t.Fatalf("extract %s: %v", position, err)
		}
	}
	if _, err := f.coordinator.StartVideo(ctx, gen.ID); err != nil {
		t.Fatalf("start video: %v", err)
	}
	return gen
}
