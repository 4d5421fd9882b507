package request

type UpdateShopRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address" binding:"required"`
	AvgPrice int64  `json:"avgPrice" binding:"gte=0"`
	Score    int32  `json:"score" binding:"gte=0,lte=50"`
}
