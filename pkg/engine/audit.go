// pkg/engine/audit.go
package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joeydtaylor/electrician/pkg/builder"
)

// AuditRecord is the per-invocation audit event streamed to Kafka when the
// audit sink is enabled. One record per settled invocation.
type AuditRecord struct {
	ID          string `json:"id"`
	Function    string `json:"function"`
	Outcome     string `json:"outcome"` // "success" | "failure" | "dropped"
	StatusCode  int    `json:"status_code,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
	CompletedAt string `json:"completed_at"` // RFC3339
}

// Audit outcomes.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
	AuditDropped = "dropped" // completion arrived for an already-consumed or unknown id
)

// KafkaAudit batches audit records into a Kafka topic through Electrician's
// Kafka adapter. Nil *KafkaAudit is valid and records nothing.
type KafkaAudit struct {
	submit func(context.Context, AuditRecord) error
	stop   func()
}

// Record submits one audit event. Safe on a nil receiver.
func (a *KafkaAudit) Record(ctx context.Context, rec AuditRecord) error {
	if a == nil {
		return nil
	}
	if rec.CompletedAt == "" {
		rec.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return a.submit(ctx, rec)
}

// Stop flushes and tears down the writer. Safe on a nil receiver.
func (a *KafkaAudit) Stop() {
	if a != nil {
		a.stop()
	}
}

// NewKafkaAuditFromEnv builds the audit sink when KAFKA_BROKERS and
// KAFKA_TOPIC are both set; otherwise it returns (nil, nil) and auditing is
// disabled. Optional env:
//
//	KAFKA_CLIENT_ID, KAFKA_FORMAT (ndjson|json), KAFKA_KEY_TEMPLATE, KAFKA_HEADERS
//	KAFKA_BATCH_MAX_RECORDS, KAFKA_BATCH_MAX_BYTES_MB, KAFKA_BATCH_MAX_AGE_MS
//	KAFKA_WRITER_BATCH_TIMEOUT_MS
//	KAFKA_TLS_ENABLE, KAFKA_TLS_CA_FILES, KAFKA_TLS_SERVER_NAME,
//	KAFKA_TLS_CLIENT_CERT, KAFKA_TLS_CLIENT_KEY, KAFKA_TLS_INSECURE
//	KAFKA_SASL_MECHANISM (SCRAM-SHA-256|SCRAM-SHA-512), KAFKA_SASL_USERNAME, KAFKA_SASL_PASSWORD
func NewKafkaAuditFromEnv(ctx context.Context) (*KafkaAudit, error) {
	brokers := splitCSV(os.Getenv("KAFKA_BROKERS"))
	topic := strings.TrimSpace(os.Getenv("KAFKA_TOPIC"))
	if len(brokers) == 0 || topic == "" {
		return nil, nil // disabled
	}

	format := strings.ToLower(envOr("KAFKA_FORMAT", "ndjson"))
	if format != "ndjson" && format != "json" {
		return nil, errors.New("audit: KAFKA_FORMAT must be ndjson or json")
	}

	logger := builder.NewLogger(builder.LoggerWithDevelopment(true))
	wire := builder.NewWire[AuditRecord](ctx, builder.WireWithLogger[AuditRecord](logger))

	// Security
	var kTLS *tls.Config
	if strings.EqualFold(os.Getenv("KAFKA_TLS_ENABLE"), "true") || os.Getenv("KAFKA_TLS_CA_FILES") != "" {
		caFiles := splitCSV(envOr("KAFKA_TLS_CA_FILES", "./tls/ca.crt,../tls/ca.crt,../../tls/ca.crt"))
		serverName := envOr("KAFKA_TLS_SERVER_NAME", "localhost")
		var err error
		kTLS, err = builder.TLSFromCAFilesStrict(caFiles, serverName)
		if err != nil {
			return nil, err
		}
		certPath := strings.TrimSpace(os.Getenv("KAFKA_TLS_CLIENT_CERT"))
		keyPath := strings.TrimSpace(os.Getenv("KAFKA_TLS_CLIENT_KEY"))
		if certPath != "" && keyPath != "" {
			cert, err := tls.LoadX509KeyPair(certPath, keyPath)
			if err != nil {
				return nil, err
			}
			kTLS.Certificates = []tls.Certificate{cert}
		}
		if strings.EqualFold(os.Getenv("KAFKA_TLS_INSECURE"), "true") {
			kTLS.InsecureSkipVerify = true // dev only
		}
		if kTLS.MinVersion == 0 {
			kTLS.MinVersion = tls.VersionTLS12
		}
	}

	secOpts := []builder.KafkaSecurityOption{
		builder.WithClientID(envOr("KAFKA_CLIENT_ID", "polygate-audit-writer")),
	}
	if kTLS != nil {
		secOpts = append(secOpts, builder.WithTLS(kTLS))
	}
	if mech := strings.ToUpper(strings.TrimSpace(os.Getenv("KAFKA_SASL_MECHANISM"))); mech != "" {
		user := strings.TrimSpace(os.Getenv("KAFKA_SASL_USERNAME"))
		pass := strings.TrimSpace(os.Getenv("KAFKA_SASL_PASSWORD"))
		m, err := builder.SASLSCRAM(user, pass, mech)
		if err != nil {
			return nil, err
		}
		secOpts = append(secOpts, builder.WithSASL(m))
	}
	sec := builder.NewKafkaSecurity(secOpts...)

	kw := builder.NewKafkaGoWriterWithSecurity(
		brokers,
		topic,
		sec,
		builder.KafkaGoWriterWithLeastBytes(),
		builder.KafkaGoWriterWithBatchTimeout(envDurMs("KAFKA_WRITER_BATCH_TIMEOUT_MS", 400*time.Millisecond)),
	)

	maxRecords := envInt("KAFKA_BATCH_MAX_RECORDS", 10000)
	maxBytes := envInt("KAFKA_BATCH_MAX_BYTES_MB", 16) * (1 << 20)
	maxAge := envDurMs("KAFKA_BATCH_MAX_AGE_MS", 800*time.Millisecond)

	kad := builder.NewKafkaClientAdapter[AuditRecord](
		ctx,
		builder.KafkaClientAdapterWithKafkaGoWriter[AuditRecord](kw),
		builder.KafkaClientAdapterWithWriterTopic[AuditRecord](topic),
		builder.KafkaClientAdapterWithWriterFormat[AuditRecord](format, ""),
		builder.KafkaClientAdapterWithWriterBatchSettings[AuditRecord](maxRecords, maxBytes, maxAge),
		builder.KafkaClientAdapterWithWriterKeyTemplate[AuditRecord](os.Getenv("KAFKA_KEY_TEMPLATE")),
		builder.KafkaClientAdapterWithWriterHeaderTemplates[AuditRecord](parseKV(os.Getenv("KAFKA_HEADERS"))),
		builder.KafkaClientAdapterWithWire[AuditRecord](wire),
		builder.KafkaClientAdapterWithLogger[AuditRecord](logger),
	)

	type writerCtl interface {
		StartWriter(context.Context) error
		Stop()
	}
	wc, ok := any(kad).(writerCtl)
	if !ok {
		return nil, errors.New("audit: kafka adapter missing StartWriter/Stop")
	}

	if err := wire.Start(ctx); err != nil {
		return nil, err
	}
	if err := wc.StartWriter(ctx); err != nil {
		wire.Stop()
		return nil, err
	}

	return &KafkaAudit{
		submit: func(ctx context.Context, rec AuditRecord) error { return wire.Submit(ctx, rec) },
		stop: func() {
			wc.Stop()
			wire.Stop()
		},
	}, nil
}
