package azsearch

// searchRequest is the body for vectorized queries against the index.
type searchRequest struct {
	Count         bool          `json:"count"`
	Select        string        `json:"select"`
	Top           int           `json:"top"`
	VectorQueries []vectorQuery `json:"vectorQueries"`
}

// vectorQuery is one k-nearest-neighbor query against a vector field.
type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

// searchResponse is the envelope returned by the search API.
type searchResponse struct {
	Value []searchDocument `json:"value"`
}

// searchDocument is one hit with the projected field set.
type searchDocument struct {
	Title    string `json:"title"`
	Chunk    string `json:"chunk"`
	ParentID string `json:"parent_id"`
}
