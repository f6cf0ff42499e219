package app

import (
	"bytes"
	"encoding/json"
)

// The registry is a user-owned file. Members clibundle does not model are
// carried through load and save untouched.

var (
	providerKeys      = memberSet("name", "type", "apiKey", "baseUrl", "model", "proxy", "extra")
	bindingKeys       = memberSet("provider", "enabled")
	customTargetKeys  = memberSet("name", "toolId", "type", "path", "mapping")
	registryOwnedKeys = memberSet("version", "description", "providers", "profiles", "active", "activeProfile", "tools", "targets", "customTargets")
)

func memberSet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// foreignMembers returns the members of a JSON object that are not in known.
// Non-object input yields nil.
func foreignMembers(data []byte, known map[string]bool) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &all); err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	for k, v := range all {
		if known[k] {
			continue
		}
		if out == nil {
			out = map[string]json.RawMessage{}
		}
		out[k] = v
	}
	return out, nil
}

// withForeignMembers adds foreign to the encoded object in data. Members
// already present in data win.
func withForeignMembers(data []byte, foreign map[string]json.RawMessage) ([]byte, error) {
	if len(foreign) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range foreign {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return encodeJSON(merged)
}

func cloneMembers(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

type providerFields Provider

func (p *Provider) UnmarshalJSON(data []byte) error {
	var fields providerFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	foreign, err := foreignMembers(data, providerKeys)
	if err != nil {
		return err
	}
	*p = Provider(fields)
	p.foreign = foreign
	return nil
}

func (p Provider) MarshalJSON() ([]byte, error) {
	data, err := encodeJSON(providerFields(p))
	if err != nil {
		return nil, err
	}
	return withForeignMembers(data, p.foreign)
}

type bindingFields ToolBinding

func (b *ToolBinding) UnmarshalJSON(data []byte) error {
	var fields bindingFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	foreign, err := foreignMembers(data, bindingKeys)
	if err != nil {
		return err
	}
	*b = ToolBinding(fields)
	b.foreign = foreign
	return nil
}

func (b ToolBinding) MarshalJSON() ([]byte, error) {
	data, err := encodeJSON(bindingFields(b))
	if err != nil {
		return nil, err
	}
	return withForeignMembers(data, b.foreign)
}

type customTargetFields CustomTarget

func (t *CustomTarget) UnmarshalJSON(data []byte) error {
	var fields customTargetFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	foreign, err := foreignMembers(data, customTargetKeys)
	if err != nil {
		return err
	}
	*t = CustomTarget(fields)
	t.foreign = foreign
	return nil
}

func (t CustomTarget) MarshalJSON() ([]byte, error) {
	data, err := encodeJSON(customTargetFields(t))
	if err != nil {
		return nil, err
	}
	return withForeignMembers(data, t.foreign)
}
