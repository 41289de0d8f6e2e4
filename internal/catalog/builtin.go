package catalog

// Provider names.
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
	ProviderMistral   = "mistral"
	ProviderOllama    = "ollama"
)

// Default model ids per provider.
var DefaultModels = map[string]string{
	ProviderBedrock:   "amazon.nova-micro-v1:0",
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderMistral:   "mistral-small-latest",
	ProviderOllama:    "llama3.1",
}

// Builtin returns a catalog populated with the shipped model tables.
func Builtin() *Catalog {
	c := New()
	addBedrock(c)
	addAnthropic(c)
	addMistral(c)
	addOllama(c)
	return c
}

func addBedrock(c *Catalog) {
	bedrock := func(id, name, desc string) Model {
		return Model{
			ID:                 id,
			Provider:           ProviderBedrock,
			DisplayName:        name,
			Description:        desc,
			MaxTokens:          4096,
			DefaultTemperature: 0.7,
			DefaultTopP:        0.9,
		}
	}

	for _, m := range []Model{
		bedrock("us.anthropic.claude-3-7-sonnet-20250219-v1:0", "Claude 3.7 Sonnet", "Latest Claude model with improved reasoning"),
		bedrock("anthropic.claude-3-5-sonnet-20241022-v2:0", "Claude 3.5 Sonnet", "Balanced Claude model for general use"),
		bedrock("anthropic.claude-3-sonnet-20240229-v1:0", "Claude 3 Sonnet", "Original Claude 3 model"),
		bedrock("amazon.nova-pro-v1:0", "Amazon Nova Pro", "High-performance Amazon Nova model"),
		bedrock("amazon.nova-lite-v1:0", "Amazon Nova Lite", "Balanced Amazon Nova model"),
		bedrock("amazon.nova-micro-v1:0", "Amazon Nova Micro", "Cost-effective Amazon Nova model"),
		bedrock("us.meta.llama3-3-70b-instruct-v1:0", "Llama 3.3 70B", "Llama model with 70B parameters"),
	} {
		c.AddModel(m)
	}

	c.AddGroup(Group{
		Key:         "claude",
		Name:        "Claude Models",
		Provider:    ProviderBedrock,
		Description: "Anthropic Claude models in order of preference",
		Models: []string{
			"us.anthropic.claude-3-7-sonnet-20250219-v1:0",
			"anthropic.claude-3-5-sonnet-20241022-v2:0",
			"anthropic.claude-3-sonnet-20240229-v1:0",
		},
	})
	c.AddGroup(Group{
		Key:         "nova",
		Name:        "Nova Models",
		Provider:    ProviderBedrock,
		Description: "Amazon Nova models in order of preference",
		Models: []string{
			"amazon.nova-pro-v1:0",
			"amazon.nova-lite-v1:0",
			"amazon.nova-micro-v1:0",
		},
	})
	c.AddGroup(Group{
		Key:         "llama",
		Name:        "Llama Models",
		Provider:    ProviderBedrock,
		Description: "Meta Llama models in order of preference",
		Models:      []string{"us.meta.llama3-3-70b-instruct-v1:0"},
	})

	// Bedrock publishes per-1000-token prices.
	c.SetPricing("us.anthropic.claude-3-7-sonnet-20250219-v1:0", PerThousand(0.003, 0.015))
	c.SetPricing("anthropic.claude-3-5-sonnet-20241022-v2:0", PerThousand(0.003, 0.015))
	c.SetPricing("anthropic.claude-3-sonnet-20240229-v1:0", PerThousand(0.003, 0.015))
	c.SetPricing("us.amazon.nova-premier-v1:0", PerThousand(0.0025, 0.0125))
	c.SetPricing("amazon.nova-pro-v1:0", PerThousand(0.0008, 0.0032))
	c.SetPricing("amazon.nova-lite-v1:0", PerThousand(0.00006, 0.00024))
	c.SetPricing("amazon.nova-micro-v1:0", PerThousand(0.000035, 0.00014))
	c.SetPricing("us.meta.llama3-3-70b-instruct-v1:0", PerThousand(0.00072, 0.00072))
}

func addAnthropic(c *Catalog) {
	claude := func(id, name string, maxTokens int) Model {
		return Model{
			ID:                 id,
			Provider:           ProviderAnthropic,
			DisplayName:        name,
			MaxTokens:          maxTokens,
			DefaultTemperature: 0.7,
			DefaultTopP:        0.9,
		}
	}
	c.AddModel(claude("claude-sonnet-4-20250514", "Claude Sonnet 4", 8192))
	c.AddModel(claude("claude-3-7-sonnet-20250219", "Claude 3.7 Sonnet", 8192))
	c.AddModel(claude("claude-3-5-haiku-20241022", "Claude 3.5 Haiku", 4096))

	c.AddGroup(Group{
		Key:      "sonnet",
		Name:     "Claude Sonnet",
		Provider: ProviderAnthropic,
		Models:   []string{"claude-sonnet-4-20250514", "claude-3-7-sonnet-20250219"},
	})
	c.AddGroup(Group{
		Key:      "haiku",
		Name:     "Claude Haiku",
		Provider: ProviderAnthropic,
		Models:   []string{"claude-3-5-haiku-20241022"},
	})

	c.SetPricing("claude-sonnet-4-20250514", PerMillion(3, 15))
	c.SetPricing("claude-3-7-sonnet-20250219", PerMillion(3, 15))
	c.SetPricing("claude-3-5-haiku-20241022", PerMillion(0.8, 4))
}

func addMistral(c *Catalog) {
	type entry struct {
		id, name      string
		input, output float64 // USD per million tokens
	}
	premier := []entry{
		{"mistral-large-latest", "Mistral Large", 2.0, 6.0},
		{"mistral-medium-latest", "Mistral Medium", 0.4, 2.0},
		{"magistral-medium-latest", "Magistral Medium", 2.0, 5.0},
		{"codestral-latest", "Codestral", 0.3, 0.9},
		{"mistral-saba-latest", "Mistral Saba", 0.2, 0.6},
		{"ministral-8b-latest", "Ministral 8B", 0.1, 0.1},
		{"ministral-3b-latest", "Ministral 3B", 0.04, 0.04},
	}
	open := []entry{
		{"mistral-small-latest", "Mistral Small", 0.1, 0.3},
		{"magistral-small-latest", "Magistral Small", 0.5, 1.5},
		{"devstral-small-2505", "Devstral", 0.1, 0.3},
		{"mistral-nemo", "Mistral NeMo", 0.15, 0.15},
		{"open-mistral-7b", "Mistral 7B", 0.25, 0.25},
		{"open-mixtral-8x7b", "Mixtral 8x7B", 0.7, 0.7},
		{"open-mixtral-8x22b", "Mixtral 8x22B", 2.0, 6.0},
	}

	add := func(key, name string, entries []entry) {
		g := Group{Key: key, Name: name, Provider: ProviderMistral}
		for _, e := range entries {
			c.AddModel(Model{
				ID:                 e.id,
				Provider:           ProviderMistral,
				DisplayName:        e.name,
				MaxTokens:          4096,
				DefaultTemperature: 0.7,
				DefaultTopP:        1.0,
			})
			c.SetPricing(e.id, PerMillion(e.input, e.output))
			g.Models = append(g.Models, e.id)
		}
		c.AddGroup(g)
	}
	add("premier", "Mistral Premier Models", premier)
	add("open", "Mistral Open Models", open)
}

func addOllama(c *Catalog) {
	ids := []string{"llama3.1", "llama3.2", "qwen2.5", "mistral"}
	for _, id := range ids {
		c.AddModel(Model{
			ID:                 id,
			Provider:           ProviderOllama,
			DisplayName:        id,
			Description:        "Local model served by Ollama",
			MaxTokens:          4096,
			DefaultTemperature: 0.7,
			DefaultTopP:        0.9,
		})
	}
	// Local models are free; no pricing entries.
	c.AddGroup(Group{
		Key:      "local",
		Name:     "Local Models",
		Provider: ProviderOllama,
		Models:   ids,
	})
}
