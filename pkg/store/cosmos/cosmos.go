// Package cosmos provides an Azure Cosmos DB conversation store driver
// speaking the SQL-over-REST API directly.
package cosmos

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/store"
)

const (
	// DefaultDatabase is the default database name.
	DefaultDatabase = "ragline"

	// DefaultContainer is the default container name for conversations.
	DefaultContainer = "conversations"

	// apiVersion is the Cosmos REST API version this driver speaks.
	apiVersion = "2018-12-31"
)

// Config holds configuration for the Cosmos driver.
type Config struct {
	// Endpoint is the account endpoint (e.g. "https://acct.documents.azure.com").
	Endpoint string

	// Key is the account master key (base64).
	Key string

	// Database is the database name. Defaults to DefaultDatabase if empty.
	Database string

	// Container is the container name. Defaults to DefaultContainer if empty.
	Container string
}

// Driver implements store.Driver against Cosmos DB's REST API. Conversations
// are stored one document per id, partitioned by /user_id.
type Driver struct {
	endpoint   string
	key        []byte
	database   string
	container  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDriver creates a new Cosmos store driver and ensures the database and
// container exist. Creation races across instances are tolerated: a 409
// Conflict from either create call counts as success.
func NewDriver(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.Endpoint == "" {
		return nil, errors.New("cosmos endpoint is required")
	}
	if c.Key == "" {
		return nil, errors.New("cosmos key is required")
	}

	key, err := base64.StdEncoding.DecodeString(c.Key)
	if err != nil {
		return nil, fmt.Errorf("decoding cosmos key: %w", err)
	}

	database := c.Database
	if database == "" {
		database = DefaultDatabase
	}

	container := c.Container
	if container == "" {
		container = DefaultContainer
	}

	d := &Driver{
		endpoint:  strings.TrimRight(c.Endpoint, "/"),
		key:       key,
		database:  database,
		container: container,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	if err := d.ensureDatabase(ctx); err != nil {
		return nil, fmt.Errorf("ensuring database %q: %w", database, err)
	}
	if err := d.ensureContainer(ctx); err != nil {
		return nil, fmt.Errorf("ensuring container %q: %w", container, err)
	}

	logger.Info("connected to Cosmos DB",
		zap.String("endpoint", c.Endpoint),
		zap.String("database", database),
		zap.String("container", container),
	)

	return d, nil
}

// ensureDatabase creates the database, treating "already exists" as success.
func (d *Driver) ensureDatabase(ctx context.Context) error {
	body := cosmosCreateDatabaseRequest{ID: d.database}
	resp, err := d.do(ctx, http.MethodPost, "dbs", "", "/dbs", body, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusConflict {
		return nil
	}

	return responseError("create database", resp)
}

// ensureContainer creates the container partitioned on /user_id, treating
// "already exists" as success.
func (d *Driver) ensureContainer(ctx context.Context) error {
	body := cosmosCreateContainerRequest{
		ID: d.container,
		PartitionKey: cosmosPartitionKey{
			Paths: []string{"/user_id"},
			Kind:  "Hash",
		},
	}

	link := fmt.Sprintf("dbs/%s", d.database)
	resp, err := d.do(ctx, http.MethodPost, "colls", link, "/"+link+"/colls", body, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusConflict {
		return nil
	}

	return responseError("create container", resp)
}

// Get retrieves a conversation by its id using a parameterized
// cross-partition query, since the partition key is unknown at lookup time.
func (d *Driver) Get(ctx context.Context, id string) (*conversation.Conversation, error) {
	query := cosmosQueryRequest{
		Query: "SELECT * FROM c WHERE c.id = @id",
		Parameters: []cosmosQueryParameter{
			{Name: "@id", Value: id},
		},
	}

	docs, err := d.queryDocuments(ctx, query, "")
	if err != nil {
		return nil, fmt.Errorf("querying conversation %s: %w", id, err)
	}

	if len(docs) == 0 {
		return nil, store.NotFoundError{ID: id}
	}

	return toConversation(docs[0]), nil
}

// ListByUser returns the user's conversations newest first. The partitioned
// query is attempted first; on failure it falls back to a cross-partition
// scan before giving up.
func (d *Driver) ListByUser(ctx context.Context, userID string) ([]*conversation.Conversation, error) {
	query := cosmosQueryRequest{
		Query: "SELECT * FROM c WHERE c.user_id = @userId ORDER BY c._ts DESC",
		Parameters: []cosmosQueryParameter{
			{Name: "@userId", Value: userID},
		},
	}

	docs, err := d.queryDocuments(ctx, query, userID)
	if err != nil {
		d.logger.Warn("partitioned query failed, falling back to cross-partition scan",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		docs, err = d.queryDocuments(ctx, query, "")
		if err != nil {
			return nil, fmt.Errorf("querying conversations for user %s: %w", userID, err)
		}
	}

	convs := make([]*conversation.Conversation, len(docs))
	for i, doc := range docs {
		convs[i] = toConversation(doc)
	}

	return convs, nil
}

// Upsert creates or fully replaces the document keyed by its id.
func (d *Driver) Upsert(ctx context.Context, conv *conversation.Conversation) (*conversation.Conversation, error) {
	if conv == nil {
		return nil, errors.New("cannot store nil conversation")
	}
	if conv.UserID == "" {
		return nil, store.ErrMissingUserID
	}

	doc := fromConversation(conv)
	link := fmt.Sprintf("dbs/%s/colls/%s", d.database, d.container)

	headers := map[string]string{
		"x-ms-documentdb-is-upsert":    "true",
		"x-ms-documentdb-partitionkey": partitionKeyHeader(conv.UserID),
	}

	resp, err := d.do(ctx, http.MethodPost, "docs", link, "/"+link+"/docs", doc, headers)
	if err != nil {
		return nil, fmt.Errorf("upserting conversation %s: %w", conv.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, responseError("upsert conversation", resp)
	}

	d.logger.Debug("upserted conversation",
		zap.String("id", conv.ID),
		zap.String("user_id", conv.UserID),
	)

	return conv, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// queryDocuments runs a document query, following x-ms-continuation tokens
// until the result set is exhausted. An empty partitionKey issues a
// cross-partition query.
func (d *Driver) queryDocuments(ctx context.Context, query cosmosQueryRequest, partitionKey string) ([]cosmosDocument, error) {
	link := fmt.Sprintf("dbs/%s/colls/%s", d.database, d.container)

	var docs []cosmosDocument
	continuation := ""

	for {
		headers := map[string]string{
			"Content-Type":            "application/query+json",
			"x-ms-documentdb-isquery": "true",
			"x-ms-max-item-count":     "-1",
		}
		if partitionKey != "" {
			headers["x-ms-documentdb-partitionkey"] = partitionKeyHeader(partitionKey)
		} else {
			headers["x-ms-documentdb-query-enablecrosspartition"] = "true"
		}
		if continuation != "" {
			headers["x-ms-continuation"] = continuation
		}

		resp, err := d.do(ctx, http.MethodPost, "docs", link, "/"+link+"/docs", query, headers)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			err := responseError("query documents", resp)
			resp.Body.Close()
			return nil, err
		}

		var queryResp cosmosQueryResponse
		if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("decoding query response: %w", err)
		}
		resp.Body.Close()

		docs = append(docs, queryResp.Documents...)

		continuation = resp.Header.Get("x-ms-continuation")
		if continuation == "" {
			return docs, nil
		}
	}
}

// do signs and sends one REST request. resourceType and resourceLink feed
// the master-key signature; path is the request path on the account endpoint.
func (d *Driver) do(ctx context.Context, verb, resourceType, resourceLink, path string, body any, headers map[string]string) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, verb, d.endpoint+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	date := strings.ToLower(time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("x-ms-date", date)
	req.Header.Set("x-ms-version", apiVersion)
	req.Header.Set("Authorization", d.authToken(verb, resourceType, resourceLink, date))
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	return resp, nil
}

// authToken computes the master-key authorization token for one request.
func (d *Driver) authToken(verb, resourceType, resourceLink, date string) string {
	stringToSign := strings.ToLower(verb) + "\n" +
		strings.ToLower(resourceType) + "\n" +
		resourceLink + "\n" +
		date + "\n" +
		"\n"

	mac := hmac.New(sha256.New, d.key)
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return url.QueryEscape("type=master&ver=1.0&sig=" + signature)
}

// partitionKeyHeader renders the JSON-array partition key header value.
func partitionKeyHeader(userID string) string {
	key, _ := json.Marshal([]string{userID})
	return string(key)
}

func responseError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("failed to %s: status %d: %s", op, resp.StatusCode, string(body))
}

func toConversation(doc cosmosDocument) *conversation.Conversation {
	conv := &conversation.Conversation{
		ID:       doc.ID,
		UserID:   doc.UserID,
		Messages: make([]conversation.Message, len(doc.Messages)),
	}
	for i, msg := range doc.Messages {
		conv.Messages[i] = conversation.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
	}
	return conv
}

func fromConversation(conv *conversation.Conversation) cosmosDocument {
	doc := cosmosDocument{
		ID:       conv.ID,
		UserID:   conv.UserID,
		Messages: make([]cosmosMessage, len(conv.Messages)),
	}
	for i, msg := range conv.Messages {
		doc.Messages[i] = cosmosMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
	}
	return doc
}

// Ensure Driver implements store.Driver
var _ store.Driver = (*Driver)(nil)
