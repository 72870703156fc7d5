package service

import "errors"

// 服务层哨兵错误，handler 据此映射业务码与文案。
var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrNotFound           = errors.New("记录不存在")

	ErrOrderNotFound      = errors.New("订单不存在")
	ErrOrderFetchFailed   = errors.New("订单加载失败")
	ErrOrderStatusInvalid = errors.New("订单状态无效")

	ErrTrackingEventNotFound    = errors.New("物流事件不存在")
	ErrTrackingStatusRequired   = errors.New("物流事件状态不能为空")
	ErrTrackingTimestampInvalid = errors.New("物流事件时间无效")
	ErrTrackingConflict         = errors.New("物流并发修改冲突")

	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrInvalidEmail              = errors.New("邮箱地址无效")
	ErrEmailRecipientRejected    = errors.New("收件人被拒绝")
)
