package dto

// TaskListQuery параметры GET /tasks
type TaskListQuery struct {
	Completed string `form:"completed"`
	Limit     int    `form:"limit" binding:"omitempty,min=0"`
	Skip      int    `form:"skip" binding:"omitempty,min=0"`
	SortBy    string `form:"sortBy"`
}
