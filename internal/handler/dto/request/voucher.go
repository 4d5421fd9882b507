package request

import (
	"time"
)

type AddVoucherRequest struct {
	Title     string    `json:"title" binding:"required"`
	Stock     int32     `json:"stock" binding:"required,gte=0"`
	BeginTime time.Time `json:"begin_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}
