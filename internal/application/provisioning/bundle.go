package provisioning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/go-viper/mapstructure/v2"
)

// BundleTemplate is the metadata block of a bundle document.
type BundleTemplate struct {
	Code        string `mapstructure:"code"`
	Name        string `mapstructure:"name"`
	Type        string `mapstructure:"type"`
	Version     *int   `mapstructure:"version"`
	IsActive    *bool  `mapstructure:"isActive"`
	Description string `mapstructure:"description"`
}

// BundleItem is one raw item of a bundle document. The entity type is kept as
// written; callers normalize it.
type BundleItem struct {
	Index     int
	RawType   string
	Data      map[string]any
	SortOrder *int
}

// BundleDocument is a parsed bundle file or import request body. Template is
// nil when the document has no template block.
type BundleDocument struct {
	Template *BundleTemplate
	Items    []BundleItem
}

// Keys that describe the item itself rather than its payload.
var bundleItemMetaKeys = map[string]bool{
	"entityType":  true,
	"entity_type": true,
	"sortOrder":   true,
	"sort_order":  true,
}

// ParseBundle reads a bundle document:
//
//	{ "template": {...}, "items": [ { "entityType", "data"?, "sortOrder"? } ] }
//
// Items that carry no "data" object use their remaining keys as the payload.
// Field names are not normalized here.
func ParseBundle(r io.Reader) (*BundleDocument, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid template bundle: %v", err))
	}

	doc := &BundleDocument{}
	if block, ok := raw["template"].(map[string]any); ok {
		var meta BundleTemplate
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &meta,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(provisioning.NormalizeFieldNames(block)); err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid template block: %v", err))
		}
		doc.Template = &meta
	}

	rawItems, _ := raw["items"].([]any)
	for i, rawItem := range rawItems {
		obj, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}
		item := BundleItem{Index: i, RawType: firstString(obj, "entityType", "entity_type")}
		// A present "data" that is not an object leaves the item without payload.
		if rawData, ok := obj["data"]; ok {
			item.Data, _ = rawData.(map[string]any)
		} else {
			item.Data = make(map[string]any, len(obj))
			for k, v := range obj {
				if !bundleItemMetaKeys[k] {
					item.Data[k] = v
				}
			}
		}
		if order, ok := firstInt(obj, "sortOrder", "sort_order"); ok {
			item.SortOrder = &order
		}
		doc.Items = append(doc.Items, item)
	}
	return doc, nil
}

// ParseBundleBytes parses a bundle held in memory
func ParseBundleBytes(body []byte) (*BundleDocument, error) {
	return ParseBundle(bytes.NewReader(body))
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstInt(obj map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n), true
			}
		case float64:
			return int(v), true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
