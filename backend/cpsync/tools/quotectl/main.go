// quotectl 离线报价工具：读取本地或远端费率表，按线上同一套规则计算报价
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
