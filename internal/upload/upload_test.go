package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/printhaus/storefront-api/internal/obs"
	"github.com/printhaus/storefront-api/internal/resilience"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueUploads}, nil
}

type fakeMarker struct {
	marked []uuid.UUID
}

func (f *fakeMarker) MarkArtworkUploaded(id uuid.UUID) error {
	f.marked = append(f.marked, id)
	return nil
}

func postUpload(t *testing.T, h *Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	return rec
}

func TestUploadEnqueuesAndMarksSession(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	marker := &fakeMarker{}
	h := NewHandler(HandlerConfig{
		Enqueuer: enqueuer,
		Sessions: marker,
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
	})

	sessionID := uuid.New()
	productID := uuid.New()
	rec := postUpload(t, h, map[string]any{
		"sessionId":   sessionID.String(),
		"productId":   productID.String(),
		"filename":    "artwork.png",
		"contentType": "image/png",
		"data":        base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enqueuer.tasks, 1)
	require.Equal(t, TaskForwardArtwork, enqueuer.tasks[0].Type())

	var p ForwardPayload
	require.NoError(t, json.Unmarshal(enqueuer.tasks[0].Payload(), &p))
	require.Equal(t, productID, p.ProductID)
	require.Equal(t, []byte("png-bytes"), p.Data)

	require.Equal(t, []uuid.UUID{sessionID}, marker.marked)
}

func TestUploadValidation(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Enqueuer: &fakeEnqueuer{},
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
	})

	rec := postUpload(t, h, map[string]any{"filename": "artwork.png"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postUpload(t, h, map[string]any{
		"productId":   uuid.NewString(),
		"filename":    "artwork.png",
		"contentType": "image/png",
		"data":        "not-base64!!!",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadSizeLimit(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Enqueuer: &fakeEnqueuer{},
		Validate: validator.New(),
		MaxBytes: 8,
		Logger:   zerolog.Nop(),
	})

	rec := postUpload(t, h, map[string]any{
		"productId":   uuid.NewString(),
		"filename":    "artwork.png",
		"contentType": "image/png",
		"data":        base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("x"), 64)),
	})
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestForwarderDeliversMultipart(t *testing.T) {
	obs.MustRegisterDomainMetrics("uploadtest", prometheus.NewRegistry())

	var gotFilename, gotProductID string
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotProductID = r.FormValue("productId")
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, header.Size)
		_, _ = file.Read(buf)
		gotFile = buf
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	productID := uuid.New()
	payload, err := json.Marshal(ForwardPayload{
		ProductID:   productID,
		Filename:    "artwork.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	})
	require.NoError(t, err)

	f := &Forwarder{
		Target: srv.URL,
		HTTP:   &resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1, Timeout: 5 * time.Second},
		Logger: zerolog.Nop(),
	}
	err = f.HandleForward(context.Background(), asynq.NewTask(TaskForwardArtwork, payload))
	require.NoError(t, err)
	require.Equal(t, "artwork.png", gotFilename)
	require.Equal(t, productID.String(), gotProductID)
	require.Equal(t, []byte("png-bytes"), gotFile)
}

func TestForwarderReportsRejection(t *testing.T) {
	obs.MustRegisterDomainMetrics("uploadtest", prometheus.NewRegistry())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	payload, err := json.Marshal(ForwardPayload{ProductID: uuid.New(), Filename: "a.png"})
	require.NoError(t, err)

	f := &Forwarder{
		Target: srv.URL,
		HTTP:   &resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1, Timeout: 5 * time.Second},
		Logger: zerolog.Nop(),
	}
	err = f.HandleForward(context.Background(), asynq.NewTask(TaskForwardArtwork, payload))
	require.Error(t, err)
}
