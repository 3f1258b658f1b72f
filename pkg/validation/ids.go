package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/dukex/flowdraft/pkg/models"
)

// IsValidNodeID reports whether v can identify a node: an integer (including
// integral floats and decimal strings, as decoded from JSON) or a string with
// the temporary-id prefix.
func IsValidNodeID(v any) bool {
	switch id := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return !math.IsInf(id, 0) && !math.IsNaN(id) && id == math.Trunc(id)
	case float32:
		return IsValidNodeID(float64(id))
	case json.Number:
		_, err := id.Int64()
		return err == nil
	case models.ID:
		return IsValidNodeID(string(id))
	case *models.ID:
		return id != nil && IsValidNodeID(string(*id))
	case string:
		if strings.HasPrefix(id, models.TemporaryIDPrefix) {
			return len(id) > len(models.TemporaryIDPrefix)
		}

		_, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)

		return err == nil
	default:
		return false
	}
}
