package enrich

import (
	"math"
	"strings"

	"realty-rag/internal/correlate"
)

// enrichProperty derives price-per-area and feature flags for a listing.
func enrichProperty(rec map[string]any, entity *correlate.EnrichedEntity) {
	price, priceOK := asFloat(rec["price"])
	area, areaOK := asFloat(rec["living_area"])
	if !areaOK {
		area, areaOK = asFloat(rec["area_sqm"])
	}
	switch {
	case priceOK && areaOK && area > 0:
		rec["price_per_sqm"] = math.Round(price/area*100) / 100
	case rec["price"] != nil && !priceOK:
		warnField(entity, "price", "not numeric")
	case rec["living_area"] != nil && !areaOK:
		warnField(entity, "living_area", "not numeric")
	}

	if raw, present := rec["features"]; present {
		features, ok := asSlice(raw)
		if !ok {
			warnField(entity, "features", "not a list")
			return
		}
		rec["feature_count"] = len(features)
		for _, f := range features {
			name, ok := asString(f)
			if !ok {
				continue
			}
			switch strings.ToLower(name) {
			case "garden", "tuin":
				rec["has_garden"] = true
			case "parking", "garage":
				rec["has_parking"] = true
			case "balcony", "balkon":
				rec["has_balcony"] = true
			}
		}
	}
}

// enrichNeighborhood derives a demographic-diversity score and buckets
// amenities into categories.
func enrichNeighborhood(rec map[string]any, entity *correlate.EnrichedEntity) {
	if raw, present := rec["demographics"]; present {
		groups, ok := raw.(map[string]any)
		if !ok {
			warnField(entity, "demographics", "not a map")
		} else {
			rec["diversity_score"] = diversityScore(groups)
		}
	}

	if raw, present := rec["amenities"]; present {
		amenities, ok := asSlice(raw)
		if !ok {
			warnField(entity, "amenities", "not a list")
			return
		}
		categories := make(map[string][]string)
		for _, a := range amenities {
			name, ok := asString(a)
			if !ok {
				continue
			}
			categories[amenityCategory(name)] = append(categories[amenityCategory(name)], name)
		}
		rec["amenity_categories"] = categories
		rec["amenity_count"] = len(amenities)
	}
}

// diversityScore is the normalized Shannon entropy of the group shares,
// in [0,1]; a single group scores 0.
func diversityScore(groups map[string]any) float64 {
	var shares []float64
	var total float64
	for _, v := range groups {
		share, ok := asFloat(v)
		if !ok || share <= 0 {
			continue
		}
		shares = append(shares, share)
		total += share
	}
	if len(shares) < 2 || total == 0 {
		return 0
	}
	var entropy float64
	for _, share := range shares {
		p := share / total
		entropy -= p * math.Log(p)
	}
	score := entropy / math.Log(float64(len(shares)))
	return math.Round(score*1000) / 1000
}

func amenityCategory(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "school") || strings.Contains(lower, "university"):
		return "education"
	case strings.Contains(lower, "park") || strings.Contains(lower, "playground"):
		return "recreation"
	case strings.Contains(lower, "station") || strings.Contains(lower, "tram") || strings.Contains(lower, "bus"):
		return "transport"
	case strings.Contains(lower, "supermarket") || strings.Contains(lower, "market") || strings.Contains(lower, "shop"):
		return "shopping"
	default:
		return "other"
	}
}

// enrichArticle derives text statistics, coordinate presence and a
// relevance bucket for a Wikipedia article.
func enrichArticle(rec map[string]any, entity *correlate.EnrichedEntity) {
	text := entity.ReconstructedText
	if text == "" {
		if extract, ok := asString(rec["extract"]); ok {
			text = extract
		}
	}
	rec["word_count"] = wordCount(text)
	rec["sentence_count"] = sentenceCount(text)

	_, latOK := asFloat(rec["latitude"])
	_, lonOK := asFloat(rec["longitude"])
	rec["has_coordinates"] = latOK && lonOK

	if raw, present := rec["relevance_score"]; present {
		score, ok := asFloat(raw)
		if !ok {
			warnField(entity, "relevance_score", "not numeric")
			return
		}
		rec["relevance_bucket"] = bucket(score, 0.7, 0.4)
	}
}

// enrichSummary scores summary quality, parses topics and buckets the
// model confidence.
func enrichSummary(rec map[string]any, entity *correlate.EnrichedEntity) {
	if summary, ok := asString(rec["summary"]); ok {
		words := wordCount(summary)
		quality := 0.0
		switch {
		case words >= 120:
			quality = 1.0
		case words > 0:
			quality = math.Round(float64(words)/120*100) / 100
		}
		rec["summary_quality"] = quality
	} else if rec["summary"] != nil {
		warnField(entity, "summary", "not a string")
	}

	if topics, ok := asString(rec["key_topics"]); ok && topics != "" {
		var parsed []string
		for _, t := range strings.Split(topics, ",") {
			if t = strings.TrimSpace(t); t != "" {
				parsed = append(parsed, t)
			}
		}
		rec["topics"] = parsed
	}

	if raw, present := rec["confidence"]; present {
		confidence, ok := asFloat(raw)
		if !ok {
			warnField(entity, "confidence", "not numeric")
			return
		}
		rec["confidence_bucket"] = bucket(confidence, 0.8, 0.5)
	}
}

func bucket(score, high, medium float64) string {
	switch {
	case score >= high:
		return "high"
	case score >= medium:
		return "medium"
	default:
		return "low"
	}
}

func sentenceCount(text string) int {
	count := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	return count
}
