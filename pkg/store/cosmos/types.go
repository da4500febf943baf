package cosmos

// cosmosQueryRequest is the body for SQL-over-REST document queries.
type cosmosQueryRequest struct {
	Query      string                 `json:"query"`
	Parameters []cosmosQueryParameter `json:"parameters"`
}

// cosmosQueryParameter is a named parameter bound into a query.
type cosmosQueryParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// cosmosQueryResponse is the envelope returned by document queries.
type cosmosQueryResponse struct {
	Documents []cosmosDocument `json:"Documents"`
	Count     int              `json:"_count"`
}

// cosmosDocument is a stored conversation document plus the system
// properties Cosmos attaches to every item.
type cosmosDocument struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	Messages []cosmosMessage `json:"messages"`
	TS       int64           `json:"_ts,omitempty"`
}

type cosmosMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// cosmosCreateDatabaseRequest creates a database by id.
type cosmosCreateDatabaseRequest struct {
	ID string `json:"id"`
}

// cosmosCreateContainerRequest creates a container with a partition key.
type cosmosCreateContainerRequest struct {
	ID           string             `json:"id"`
	PartitionKey cosmosPartitionKey `json:"partitionKey"`
}

type cosmosPartitionKey struct {
	Paths []string `json:"paths"`
	Kind  string   `json:"kind"`
}
