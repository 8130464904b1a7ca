// Package progress 由模板与提交记录推导申请进度、状态标签与模板访问权限。
//
// 包内函数均为纯函数：不做 I/O、不持有状态，可对同一快照重复调用。
package progress
