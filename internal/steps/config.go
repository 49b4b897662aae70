package steps

import "fmt"

// GetConfigString извлекает строковое значение из конфига.
func GetConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetConfigInt извлекает целое значение из конфига.
// Второе значение — был ли ключ задан числом.
func GetConfigInt(config map[string]any, key string) (int64, bool) {
	if v, ok := config[key]; ok {
		return toInt(v)
	}
	return 0, false
}

// GetConfigFloat извлекает вещественное значение из конфига.
func GetConfigFloat(config map[string]any, key string) (float64, bool) {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case uint64:
			return float64(n), true
		}
	}
	return 0, false
}

// GetConfigStrings извлекает список строк.
// JSON и YAML отдают списки как []any.
func GetConfigStrings(config map[string]any, key string) ([]string, error) {
	v, ok := config[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		result := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] is %T, want string", ErrInvalidConfig, key, i, item)
			}
			result = append(result, s)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%w: %s is %T, want list", ErrInvalidConfig, key, v)
	}
}

// GetConfigMaps извлекает список объектов.
func GetConfigMaps(config map[string]any, key string) ([]map[string]any, error) {
	v, ok := config[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case []map[string]any:
		return list, nil
	case []any:
		result := make([]map[string]any, 0, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] is %T, want object", ErrInvalidConfig, key, i, item)
			}
			result = append(result, m)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%w: %s is %T, want list", ErrInvalidConfig, key, v)
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
