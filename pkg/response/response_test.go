package response

import "testing"

func TestNewPagination(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tc := range cases {
		p := NewPagination(tc.total, 1, tc.pageSize)
		if p.TotalPages != tc.want {
			t.Errorf("total=%d pageSize=%d: 期望 %d 页，实际 %d", tc.total, tc.pageSize, tc.want, p.TotalPages)
		}
	}
}
