// Package adapters 封装对外部系统的调用：用户服务令牌核验、
// 支付网关、商家库存、汇率源、欺诈评估、视觉分析与搭配推荐。
// 每个适配器都支持远端模式（配置了 BaseURL 时经 HTTP 调用）
// 与内置模拟模式（默认，本地确定性结果），便于离线开发与联调。
package adapters
