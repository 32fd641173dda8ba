// Package catalog loads the gift catalog seed file.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"giftaihub/internal/model"
	"giftaihub/internal/money"

	"gopkg.in/yaml.v3"
)

const (
	FallbackPlatformName        = "AI Platform"
	FallbackPlatformDescription = "Access to premium AI features and capabilities"
)

//go:embed catalog.yaml
var defaultCatalog string

type file struct {
	Platforms []platformEntry `yaml:"platforms"`
}

type platformEntry struct {
	ID            string              `yaml:"id"`
	Name          string              `yaml:"name"`
	Company       string              `yaml:"company"`
	Category      string              `yaml:"category"`
	Description   string              `yaml:"description"`
	ActivationURL string              `yaml:"activation_url"`
	Subscriptions []subscriptionEntry `yaml:"subscriptions"`
}

type subscriptionEntry struct {
	ID      string  `yaml:"id"`
	Period  string  `yaml:"period"`
	Tier    string  `yaml:"tier"`
	Price   float64 `yaml:"price"`
	Popular bool    `yaml:"popular"`
}

// Default returns the embedded catalog.
func Default() ([]model.Platform, error) {
	return Load(strings.NewReader(defaultCatalog))
}

// Load parses and validates a catalog document.
func Load(r io.Reader) ([]model.Platform, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seenPlatforms := make(map[string]bool)
	seenSubs := make(map[string]bool)
	platforms := make([]model.Platform, 0, len(f.Platforms))

	for _, p := range f.Platforms {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("platform %q: id and name are required", p.ID)
		}
		if seenPlatforms[p.ID] {
			return nil, fmt.Errorf("platform %q defined twice", p.ID)
		}
		seenPlatforms[p.ID] = true

		platform := model.Platform{
			ID:            p.ID,
			Name:          p.Name,
			Company:       p.Company,
			Category:      p.Category,
			Description:   p.Description,
			ActivationURL: p.ActivationURL,
		}
		for _, s := range p.Subscriptions {
			if s.ID == "" || s.Period == "" {
				return nil, fmt.Errorf("platform %q: subscription id and period are required", p.ID)
			}
			if seenSubs[s.ID] {
				return nil, fmt.Errorf("subscription %q defined twice", s.ID)
			}
			seenSubs[s.ID] = true

			price, err := money.FromFloat(s.Price)
			if err != nil {
				return nil, fmt.Errorf("subscription %q: %w", s.ID, err)
			}
			platform.Subscriptions = append(platform.Subscriptions, model.Subscription{
				ID:         s.ID,
				PlatformID: p.ID,
				Period:     s.Period,
				Tier:       s.Tier,
				Price:      price.Round(2),
				Popular:    s.Popular,
			})
		}
		platforms = append(platforms, platform)
	}

	return platforms, nil
}

// DisplayName returns the platform name, or the generic fallback.
func DisplayName(p *model.Platform) string {
	if p == nil || p.Name == "" {
		return FallbackPlatformName
	}
	return p.Name
}

// DisplayDescription returns the platform description, or the generic fallback.
func DisplayDescription(p *model.Platform) string {
	if p == nil || p.Description == "" {
		return FallbackPlatformDescription
	}
	return p.Description
}
