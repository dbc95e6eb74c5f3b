package queue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/rabbitmq/amqp091-go"

	"github.com/chembl/compound-target-pairs-dataset/internal/config"
	"github.com/chembl/compound-target-pairs-dataset/pkg/aggregate"
	"github.com/chembl/compound-target-pairs-dataset/pkg/enrich"
	"github.com/chembl/compound-target-pairs-dataset/pkg/invariant"
	"github.com/chembl/compound-target-pairs-dataset/pkg/subset"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeAck struct {
	acks     int
	requeues int
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAck) Nack(tag uint64, multiple bool, requeue bool) error {
	if requeue {
		a.requeues++
	}
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	return nil
}

func TestParseBuildRequest(t *testing.T) {
	req, err := ParseBuildRequest([]byte(`{"request_id":"r1","chembl_version":"34","all_sources":true,"write_b":true,"min_compounds_bf":50}`))
	if err != nil {
		t.Fatalf("ParseBuildRequest() error: %v", err)
	}
	if req.RequestID != "r1" || req.ChemblVersion != "34" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.AllSources == nil || !*req.AllSources {
		t.Fatalf("all_sources not parsed")
	}
	if req.WriteBF != nil || req.MinCompoundsB != nil {
		t.Fatalf("unset fields must stay nil: %+v", req)
	}

	invalid := []string{
		`{"chembl_version":`,
		`{}`,
		`{"request_id":""}`,
		`{"request_id":"."}`,
		`{"request_id":".."}`,
		`{"request_id":"../etc"}`,
		`{"request_id":"a/b"}`,
		`{"request_id":"a\\b"}`,
	}
	for _, body := range invalid {
		if _, err := ParseBuildRequest([]byte(body)); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("ParseBuildRequest(%s) error = %v, want ErrInvalidRequest", body, err)
		}
	}
}

func TestBuildRequestApply(t *testing.T) {
	base := config.Config{
		SqlitePath:     "chembl.db",
		ChemblVersion:  "35",
		LiteratureOnly: true,
		OutputPath:     "out",
		Delimiter:      ";",
		WriteBF:        true,
		MinCompoundsBF: 100,
		MinCompoundsB:  100,
	}

	tests := []struct {
		name string
		body string
		want func(c *config.Config)
	}{
		{
			name: "request id only keeps configuration",
			body: `{"request_id":"r1"}`,
			want: func(c *config.Config) {
				c.OutputPath = filepath.Join("out", "r1")
			},
		},
		{
			name: "overrides",
			body: `{"request_id":"r7","chembl_version":"33","all_sources":true,"write_bf":false,"write_b":true,"min_compounds_b":20}`,
			want: func(c *config.Config) {
				c.ChemblVersion = "33"
				c.LiteratureOnly = false
				c.WriteBF = false
				c.WriteB = true
				c.MinCompoundsB = 20
				c.OutputPath = filepath.Join("out", "r7")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseBuildRequest([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseBuildRequest() error: %v", err)
			}
			got := base
			if err := req.Apply(&got); err != nil {
				t.Fatalf("Apply() error: %v", err)
			}
			want := base
			tt.want(&want)
			if got != want {
				t.Fatalf("config = %+v, want %+v", got, want)
			}
		})
	}
}

func TestApplyKeepsOutputInsideOutputPath(t *testing.T) {
	for _, id := range []string{"", ".", "..", "../x", "x/.."} {
		cfg := config.Config{OutputPath: "/data/out"}
		err := (&BuildRequest{RequestID: id}).Apply(&cfg)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("Apply(%q) error = %v, want ErrInvalidRequest", id, err)
		}
		if cfg.OutputPath != "/data/out" {
			t.Fatalf("Apply(%q) changed OutputPath to %q", id, cfg.OutputPath)
		}
	}
}

func TestPermanent(t *testing.T) {
	violation := &invariant.Violation{Invariant: invariant.MixedTypes, Column: "tid"}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invariant violation", fmt.Errorf("build r1 failed: %w", multierror.Append(nil, violation)), true},
		{"identity resolution", fmt.Errorf("stage removed smiles failed: %w", enrich.ErrIdentityResolution), true},
		{"subset containment", fmt.Errorf("x: %w", aggregate.ErrSubsetNotContained), true},
		{"threshold", fmt.Errorf("x: %w", subset.ErrThreshold), true},
		{"invalid config", fmt.Errorf("x: %w", config.ErrInvalid), true},
		{"invalid request", fmt.Errorf("%w: bad json", ErrInvalidRequest), true},
		{"connection refused", errors.New("dial tcp: connection refused"), false},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Permanent(tt.err); got != tt.want {
				t.Fatalf("Permanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestHandleProcessingError(t *testing.T) {
	transient := errors.New("connection reset")
	tests := []struct {
		name        string
		headers     amqp091.Table
		err         error
		wantKey     string
		wantRetries any
	}{
		{"first failure", nil, transient, "dataset_queue_retry", int32(1)},
		{"retried", amqp091.Table{"x-retries": int32(3)}, transient, "dataset_queue_retry", int32(4)},
		{"exhausted", amqp091.Table{"x-retries": int32(MaxRetries)}, transient, "dataset_queue_dlq", int32(MaxRetries)},
		{"permanent on first failure", nil, fmt.Errorf("x: %w", enrich.ErrIdentityResolution), "dataset_queue_dlq", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			ack := &fakeAck{}
			msg := amqp091.Delivery{Acknowledger: ack, Headers: tt.headers, Body: []byte(`{}`)}

			HandleProcessingError(pub, msg, DatasetQueue, tt.err)

			if len(pub.sent) != 1 {
				t.Fatalf("expected one publish, got %d", len(pub.sent))
			}
			got := pub.sent[0]
			if got.exchange != "" || got.key != tt.wantKey {
				t.Fatalf("published to %q/%q, want %q", got.exchange, got.key, tt.wantKey)
			}
			if !reflect.DeepEqual(got.msg.Headers["x-retries"], tt.wantRetries) {
				t.Fatalf("x-retries = %#v, want %#v", got.msg.Headers["x-retries"], tt.wantRetries)
			}
			if ack.acks != 1 {
				t.Fatalf("expected the delivery to be acked")
			}
		})
	}
}

func TestMalformedMessageGoesToDLQ(t *testing.T) {
	body := []byte("{not json")
	err := ProcessBuildMessage(context.Background(), nil, &fakePublisher{}, config.Config{}, body)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("ProcessBuildMessage() error = %v, want ErrInvalidRequest", err)
	}

	pub := &fakePublisher{}
	HandleProcessingError(pub, amqp091.Delivery{Acknowledger: &fakeAck{}, Body: body}, DatasetQueue, err)
	if len(pub.sent) != 1 || pub.sent[0].key != "dataset_queue_dlq" {
		t.Fatalf("malformed message routed to %+v, want dataset_queue_dlq", pub.sent)
	}
}

func TestHandleProcessingErrorRequeuesOnPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	ack := &fakeAck{}
	HandleProcessingError(pub, amqp091.Delivery{Acknowledger: ack}, DatasetQueue, errors.New("timeout"))

	if ack.acks != 0 || ack.requeues != 1 {
		t.Fatalf("acks=%d requeues=%d, want 0 and 1", ack.acks, ack.requeues)
	}
}

func TestRetriesHeaderTypes(t *testing.T) {
	for _, v := range []any{int32(2), int64(2), 2} {
		if got := Retries(amqp091.Delivery{Headers: amqp091.Table{"x-retries": v}}); got != 2 {
			t.Fatalf("Retries(%T) = %d, want 2", v, got)
		}
	}
	if got := Retries(amqp091.Delivery{}); got != 0 {
		t.Fatalf("Retries() without header = %d", got)
	}
}

func TestPublishTopic(t *testing.T) {
	pub := &fakePublisher{}
	if err := PublishTopic(pub, CompletedTopic, []byte(`{"run_id":"x"}`)); err != nil {
		t.Fatalf("PublishTopic() error: %v", err)
	}
	if pub.sent[0].exchange != topicExchange || pub.sent[0].key != CompletedTopic {
		t.Fatalf("unexpected routing: %+v", pub.sent[0])
	}
}
