package config

const (
	defaultStoreProvider  = "sqlite"
	defaultStoreDatabase  = "ragline"
	defaultStoreContainer = "conversations"

	defaultOpenAIModel      = "gpt-4o-mini"
	defaultOpenAIAPIVersion = "2024-02-01"

	defaultSearchProvider    = "azsearch"
	defaultSearchVectorField = "text_vector"
	defaultSearchTopK        = 3

	defaultAPIListen = ":8000"

	defaultEventsTopic = "ragline.turns"

	defaultClientAPITarget = "http://localhost:8000"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Store: StoreConfig{
			Provider:  defaultStoreProvider,
			Database:  defaultStoreDatabase,
			Container: defaultStoreContainer,
		},
		OpenAI: OpenAIConfig{
			Model:      defaultOpenAIModel,
			APIVersion: defaultOpenAIAPIVersion,
		},
		Search: SearchConfig{
			Provider:    defaultSearchProvider,
			VectorField: defaultSearchVectorField,
			TopK:        defaultSearchTopK,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
	}
}
