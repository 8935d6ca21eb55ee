// Package catalog holds the fixed ERP statistics categories and RCMS items.
// The catalog never changes at run time.
package catalog

import (
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// GrandTotal is the synthetic ERP category whose figures are always derived
// from the other categories.
const GrandTotal = "총액"

// Item is one RCMS reimbursement-classification item.
type Item struct {
	Code           string
	Name           string
	ParentCategory string
}

var categories = []string{
	GrandTotal,
	"기타직보수",
	"상용임금",
	"일반수용비",
	"임차료",
	"유류비",
	"재료비",
	"국내여비",
	"국외업무여비",
	"사업추진비",
	"자산취득비",
	"무형자산",
	"일반관리비",
	"고용부담금",
}

var items = []Item{
	{Code: "RCMS_001", Name: "연구근접지원인건비", ParentCategory: "인건비"},
	{Code: "RCMS_002", Name: "참여연구원인건비", ParentCategory: "인건비"},

	{Code: "RCMS_003", Name: "연구시설장비임차비", ParentCategory: "연구시설장비비"},
	{Code: "RCMS_004", Name: "연구시설장비구입설치비", ParentCategory: "연구시설장비비"},
	{Code: "RCMS_005", Name: "연구시설장비운영유지비", ParentCategory: "연구시설장비비"},
	{Code: "RCMS_006", Name: "연구인프라조성비", ParentCategory: "연구시설장비비"},

	{Code: "RCMS_007", Name: "연구개발과제관리비", ParentCategory: "연구재료비"},
	{Code: "RCMS_008", Name: "연구재료구입비", ParentCategory: "연구재료비"},
	{Code: "RCMS_009", Name: "연구재료제작비", ParentCategory: "연구재료비"},

	{Code: "RCMS_010", Name: "소프트웨어활용비", ParentCategory: "연구활동비"},
	{Code: "RCMS_011", Name: "연구실운영비", ParentCategory: "연구활동비"},
	{Code: "RCMS_012", Name: "연구인력지원비", ParentCategory: "연구활동비"},
	{Code: "RCMS_013", Name: "연구활동비기타비용", ParentCategory: "연구활동비"},
	{Code: "RCMS_014", Name: "외부전문기술활용비", ParentCategory: "연구활동비"},
	{Code: "RCMS_015", Name: "종합사업관리비", ParentCategory: "연구활동비"},
	{Code: "RCMS_016", Name: "지식재산창출활동비", ParentCategory: "연구활동비"},
	{Code: "RCMS_017", Name: "출장비", ParentCategory: "연구활동비"},
	{Code: "RCMS_018", Name: "클라우드컴퓨팅서비스활용비", ParentCategory: "연구활동비"},
	{Code: "RCMS_019", Name: "해외연구자유치지원비", ParentCategory: "연구활동비"},
	{Code: "RCMS_020", Name: "회의비", ParentCategory: "연구활동비"},

	{Code: "RCMS_021", Name: "연구수당", ParentCategory: "연구수당"},

	{Code: "RCMS_022", Name: "간접비", ParentCategory: "간접비"},
}

var (
	nameByCode  = make(map[string]string, len(items))
	codeByName  = make(map[string]string, len(items))
	categorySet = make(map[string]bool, len(categories))
)

func init() {
	for _, it := range items {
		nameByCode[it.Code] = it.Name
		codeByName[it.Name] = it.Code
	}
	for _, c := range categories {
		categorySet[c] = true
	}
}

// Categories returns the ERP categories in display order, grand total first.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// ExpenseCategories returns the categories an expense may be recorded under,
// which excludes the grand total.
func ExpenseCategories() []string {
	return Categories()[1:]
}

// IsCategory reports whether name is one of the ERP categories.
func IsCategory(name string) bool {
	return categorySet[name]
}

// Items returns the RCMS items in code order.
func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// NameByCode looks up an RCMS item name.
func NameByCode(code string) (string, bool) {
	name, ok := nameByCode[code]
	return name, ok
}

// CodeByName looks up an RCMS item code.
func CodeByName(name string) (string, bool) {
	code, ok := codeByName[name]
	return code, ok
}

// IsRCMSCode reports whether code is a known RCMS item code.
func IsRCMSCode(code string) bool {
	_, ok := nameByCode[code]
	return ok
}

// NewERPTable seeds an ERP budget table with every category and zero amounts.
func NewERPTable(now time.Time) []model.ERPBudgetRow {
	rows := make([]model.ERPBudgetRow, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, model.ERPBudgetRow{Category: c, UpdatedAt: now})
	}
	return rows
}

// NewRCMSTable seeds an RCMS budget table with every item and zero amounts.
func NewRCMSTable(now time.Time) []model.RCMSBudgetRow {
	rows := make([]model.RCMSBudgetRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, model.RCMSBudgetRow{
			Code:           it.Code,
			Name:           it.Name,
			ParentCategory: it.ParentCategory,
			UpdatedAt:      now,
		})
	}
	return rows
}

// NewDataset returns an empty dataset with both budget tables seeded.
func NewDataset(now time.Time) *model.Dataset {
	return &model.Dataset{
		Expenses:   []model.Expense{},
		ERPBudget:  NewERPTable(now),
		RCMSBudget: NewRCMSTable(now),
		Mapping:    []model.MappingRow{},
	}
}
