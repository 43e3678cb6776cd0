// Package styleapi is the HTTP adapter for the remote garment vision
// services: background removal, categorization and virtual try-on. One
// Client is shared by the three adapters; each call streams the stored
// image up and stores the produced image back.
package styleapi

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
	"github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL  string
	apiKey   string
	storage  ports.ObjectStorage
	executor *resilience.Executor
	http     httpDoer
}

type Option func(*Client)

// WithResilience routes every remote call through the shared executor.
func WithResilience(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

func New(baseURL, apiKey string, storage ports.ObjectStorage, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		storage: storage,
		http:    newHTTPClient(120 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Remover struct {
	client *Client
}

func NewRemover(client *Client) *Remover {
	return &Remover{client: client}
}

// Remove uploads the source capture and stores the returned cutout under
// cutouts/, keyed by the capture's base name.
func (r *Remover) Remove(ctx context.Context, imageKey string) (string, error) {
	cutout, err := r.client.postImage(ctx, "/v1/background-removal", "background_removal", imageKey)
	if err != nil {
		return "", err
	}

	cutoutKey := "cutouts/" + trimExt(path.Base(imageKey)) + ".png"
	if err := r.client.storage.Save(ctx, cutoutKey, cutout); err != nil {
		return "", fmt.Errorf("store cutout: %w", err)
	}
	return cutoutKey, nil
}

type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, imageKey string) (domain.Classification, error) {
	var result domain.Classification
	if err := c.client.postImageJSON(ctx, "/v1/classify", "classify", imageKey, &result); err != nil {
		return domain.Classification{}, err
	}
	return result, nil
}

type Compositor struct {
	client *Client
}

func NewCompositor(client *Client) *Compositor {
	return &Compositor{client: client}
}

// Compose uploads both images and stores the rendered try-on result under
// tryon/. The remote call is awaited to completion; there is no polling.
func (c *Compositor) Compose(ctx context.Context, garmentImage, personImage string) (string, error) {
	result, err := c.client.postImagePair(ctx, "/v1/tryon", "tryon", garmentImage, personImage)
	if err != nil {
		return "", err
	}

	resultKey := "tryon/" + uuid.NewString() + ".png"
	if err := c.client.storage.Save(ctx, resultKey, result); err != nil {
		return "", fmt.Errorf("store try-on result: %w", err)
	}
	return resultKey, nil
}

func trimExt(name string) string {
	if ext := path.Ext(name); ext != "" {
		return strings.TrimSuffix(name, ext)
	}
	return name
}
