package pricing

import (
	"math"
	"strconv"
	"strings"
)

// RouteKey 路线分组
type RouteKey string

const (
	RouteAssamToNE  RouteKey = "assamToNe"  // 阿萨姆 → 东北各邦
	RouteAssamToROI RouteKey = "assamToRoi" // 阿萨姆 → 印度其他地区
)

// ServiceType 服务类型
type ServiceType string

const (
	ServiceStandard ServiceType = "standard"
	ServicePriority ServiceType = "priority"
)

// ConsignmentType 货件类型（仅标准件区分）
type ConsignmentType string

const (
	ConsignmentDox    ConsignmentType = "dox"
	ConsignmentNonDox ConsignmentType = "non-dox"
)

// Mode 运输方式（仅标准件区分）
type Mode string

const (
	ModeAir   Mode = "air"
	ModeRoad  Mode = "road"
	ModeTrain Mode = "train"
)

// ParseServiceType 解析服务类型（大小写不敏感）
func ParseServiceType(s string) (ServiceType, error) {
	switch normalize(s) {
	case "standard":
		return ServiceStandard, nil
	case "priority":
		return ServicePriority, nil
	}
	return "", newInvalidOption("service_type", s)
}

// ParseConsignmentType 解析货件类型，兼容 non-dox / nondox / non_dox / "non dox"
func ParseConsignmentType(s string) (ConsignmentType, error) {
	switch normalize(s) {
	case "dox":
		return ConsignmentDox, nil
	case "non-dox", "nondox", "non_dox", "non dox":
		return ConsignmentNonDox, nil
	}
	return "", newInvalidOption("consignment_type", s)
}

// ParseMode 解析运输方式
// 未知运输方式按“无此运输方式费率”处理
func ParseMode(s string) (Mode, error) {
	switch normalize(s) {
	case "air":
		return ModeAir, nil
	case "road":
		return ModeRoad, nil
	case "train":
		return ModeTrain, nil
	}
	return "", newModeUnavailable(Mode(s), "")
}

// RawRequest 未解析的报价输入，枚举保留调用方原始字符串
type RawRequest struct {
	ServiceType     string
	ConsignmentType string
	Mode            string
	Destination     string
	WeightKg        float64
}

// ParseRequest 解析枚举，加急件忽略货件类型和运输方式
func ParseRequest(raw RawRequest) (QuoteRequest, error) {
	service, err := ParseServiceType(raw.ServiceType)
	if err != nil {
		return QuoteRequest{}, err
	}
	req := QuoteRequest{
		ServiceType: service,
		Destination: raw.Destination,
		WeightKg:    raw.WeightKg,
	}
	if service == ServicePriority {
		return req, nil
	}

	if req.ConsignmentType, err = ParseConsignmentType(raw.ConsignmentType); err != nil {
		return QuoteRequest{}, err
	}
	if req.Mode, err = ParseMode(raw.Mode); err != nil {
		return QuoteRequest{}, err
	}
	return req, nil
}

// ParseWeight 解析用户输入的重量（公斤）
func ParseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return 0, newInvalidWeight()
	}
	return w, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
