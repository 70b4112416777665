// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"fmt"
	"log/slog"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients holds the Google Cloud clients the configuration asks for.
// Every field may be nil: a local run with the mock backend and no bucket
// needs none of them.
type ServiceClients struct {
	StorageClient   *storage.Client                   // Set when storage.output_bucket is configured.
	PubsubClient    *pubsub.Client                    // Set when topic_subscriptions are configured.
	GenAIClient     *genai.Client                     // Set when a gemini agent model is configured.
	IAMClient       *credentials.IamCredentialsClient // Set when a signer service account is configured.
	PubSubListeners map[string]*PubSubListener        // Keyed by the topic_subscriptions name.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
}

// Close releases every client that was opened.
func (c *ServiceClients) Close() {
	if c == nil {
		return
	}
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients creates only the clients the configuration needs.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	// Clean up whatever was opened if a later client fails.
	defer func() {
		if err != nil {
			cloud.Close()
			cloud = nil
		}
	}()

	if config.Storage.OutputBucket != "" {
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return cloud, fmt.Errorf("failed to create storage client: %w", err)
		}
	}

	if config.Application.SignerServiceAccountEmail != "" && cloud.StorageClient != nil {
		if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
			return cloud, fmt.Errorf("failed to create IAM credentials client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return cloud, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				return cloud, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
	}

	for amKey, values := range config.AgentModels {
		if Provider(amKey, values) != ProviderGemini {
			continue
		}
		if cloud.GenAIClient == nil {
			clientConfig, ok := genAIClientConfig(config, values)
			if !ok {
				slog.Info("gemini backend has neither an API key nor a project, skipping", "model", amKey)
				continue
			}
			if cloud.GenAIClient, err = genai.NewClient(ctx, clientConfig); err != nil {
				return cloud, fmt.Errorf("failed to create genai client: %w", err)
			}
		}
		cloud.AgentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, cloud.GenAIClient.Models, values.RateLimit)
	}

	return cloud, nil
}

// NewGenerateContentConfig maps an agent model entry onto the genai request
// settings. The system instruction is set per request.
func NewGenerateContentConfig(values LLMModel) *genai.GenerateContentConfig {
	c := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if values.TopP > 0 {
		c.TopP = genai.Ptr[float32](values.TopP)
	}
	if values.TopK > 0 {
		c.TopK = genai.Ptr[float32](values.TopK)
	}
	return c
}

// Provider resolves the provider of an agent model entry, defaulting to the
// entry's key.
func Provider(key string, values LLMModel) string {
	if values.Provider != "" {
		return values.Provider
	}
	return key
}

func genAIClientConfig(config *Config, values LLMModel) (*genai.ClientConfig, bool) {
	if values.APIKey != "" {
		return &genai.ClientConfig{APIKey: values.APIKey, Backend: genai.BackendGeminiAPI}, true
	}
	if config.Application.GoogleProjectId != "" {
		return &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		}, true
	}
	return nil, false
}
