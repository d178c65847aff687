package common

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

var (
	codeFenceRe  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	listMarkerRe = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)
	lineConfRe   = regexp.MustCompile(`^(.*?)\s*(?:[:=\-–]\s*|\(\s*)(0(?:\.\d+)?|1(?:\.0+)?)\s*\)?$`)
)

// noneAnswers are line-list replies meaning "nothing qualifies"
var noneAnswers = map[string]bool{"none": true, "n/a": true, "no organizations": true, "[]": true}

// ParseDiscoveryResponse reads a discovery reply. It accepts the requested JSON
// object, a bare JSON array of objects or strings, and a plain line list.
// Names are trimmed and de-duplicated ignoring case; confidences are clamped
// to [0, 1].
func ParseDiscoveryResponse(raw string) ([]models.DiscoveredOrg, error) {
	text := strings.TrimSpace(raw)
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		return nil, services.ErrEmptyDiscoveryResponse
	}

	switch text[0] {
	case '{':
		var resp DiscoveryResponse
		if err := json.Unmarshal([]byte(text), &resp); err != nil {
			return nil, eris.Wrap(err, "failed to decode discovery object")
		}
		return clean(resp.Organizations), nil
	case '[':
		orgs, err := parseArray([]byte(text))
		if err != nil {
			return nil, err
		}
		return clean(orgs), nil
	}
	return clean(parseLines(text)), nil
}

func parseArray(data []byte) ([]models.DiscoveredOrg, error) {
	var orgs []models.DiscoveredOrg
	if err := json.Unmarshal(data, &orgs); err == nil {
		return orgs, nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, eris.Wrap(err, "failed to decode discovery array")
	}
	orgs = make([]models.DiscoveredOrg, 0, len(names))
	for _, n := range names {
		orgs = append(orgs, models.DiscoveredOrg{Name: n, Confidence: defaultLineConfidence})
	}
	return orgs, nil
}

func parseLines(text string) []models.DiscoveredOrg {
	var orgs []models.DiscoveredOrg
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarkerRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" || noneAnswers[strings.ToLower(line)] {
			continue
		}

		conf := defaultLineConfidence
		if m := lineConfRe.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
			if v, err := strconv.ParseFloat(m[2], 64); err == nil {
				line, conf = m[1], v
			}
		}
		orgs = append(orgs, models.DiscoveredOrg{Name: strings.Trim(line, ` "'`+"`"), Confidence: conf})
	}
	return orgs
}

func clean(orgs []models.DiscoveredOrg) []models.DiscoveredOrg {
	out := make([]models.DiscoveredOrg, 0, len(orgs))
	seen := make(map[string]bool, len(orgs))
	for _, o := range orgs {
		name := strings.TrimSpace(o.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, models.DiscoveredOrg{Name: name, Confidence: clamp(o.Confidence)})
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
