package attendance

import (
	"fmt"
	"math"
)

func paginate(total int64, page, limit int) (int, string) {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	showing := fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}
	return totalPages, showing
}
