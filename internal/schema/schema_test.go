package schema_test

import (
	"slices"
	"testing"

	"datapacks/internal/schema"
)

const testDefinition = `
DataPacksDefault:
  SupportParallel: true
  MaxDeploy: 100
SObjectsDefault:
  UnhashableFields: [CreatedDate]
GuaranteedParentKeys: ["RecordType/Product2/Product"]
SObjects:
  Product2:
    SourceKeyDefinition: [ProductCode]
    FilterFields: [FromSObjects]
DataPacks:
  Product2:
    SupportParallel: false
    MaxDeploy: 5
    Product2:
      FilterFields: [FromSection]
      Fields:
        Meta__c: json
        Children__c: list
        Parts__c: object
        Style__c:
          FileType: scss
          CompiledField: CSS__c
  Solo:
    SoloDeploy: true
`

func mustParse(t *testing.T, doc string) *schema.Definitions {
	t.Helper()
	defs, err := schema.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return defs
}

func TestPolicyFlagsFollowPrecedence(t *testing.T) {
	defs := mustParse(t, testDefinition)
	if defs.AllowParallel("Product2") {
		t.Fatal("explicit false on the type must win over the default")
	}
	if !defs.AllowParallel("Unknown") {
		t.Fatal("expected DataPacksDefault to apply to unknown types")
	}
	if !defs.IsSoloDeploy("Solo") || defs.IsSoloDeploy("Product2") {
		t.Fatal("unexpected solo-deploy result")
	}
	if n, ok := defs.MaxDeploy("Product2"); !ok || n != 5 {
		t.Fatalf("MaxDeploy(Product2) = %d, %v", n, ok)
	}
	if n, ok := defs.MaxDeploy("Solo"); !ok || n != 100 {
		t.Fatalf("MaxDeploy(Solo) = %d, %v", n, ok)
	}
}

func TestListLookupPrecedence(t *testing.T) {
	defs := mustParse(t, testDefinition)
	if got := defs.FilterFields("Product2", "Product2"); !slices.Equal(got, []string{"FromSection"}) {
		t.Fatalf("section level: %v", got)
	}
	if got := defs.FilterFields("Other", "Product2"); !slices.Equal(got, []string{"FromSObjects"}) {
		t.Fatalf("SObjects level: %v", got)
	}
	if got := defs.UnhashableFields("Other", "Thing"); !slices.Equal(got, []string{"CreatedDate"}) {
		t.Fatalf("SObjectsDefault level: %v", got)
	}
	if got := defs.UnhashableFields("Other", ""); got != nil {
		t.Fatalf("SObjectsDefault must not apply without a sub-type: %v", got)
	}
	if got := defs.ImportDataKeys("Product2"); !slices.Equal(got, []string{"VlocityRecordSObjectType", "Name", "ProductCode"}) {
		t.Fatalf("ImportDataKeys = %v", got)
	}
}

func TestFieldKinds(t *testing.T) {
	defs := mustParse(t, testDefinition)
	fields, ok := defs.Fields("Product2", "Product2")
	if !ok {
		t.Fatal("expected Product2 section")
	}
	want := map[string]schema.Kind{
		"Meta__c":     schema.KindScalar,
		"Children__c": schema.KindList,
		"Parts__c":    schema.KindObject,
		"Style__c":    schema.KindCompiled,
	}
	for name, kind := range want {
		if fields[name].Kind != kind {
			t.Fatalf("%s kind = %s, want %s", name, fields[name].Kind, kind)
		}
	}
	if fields["Style__c"].CompiledField != "CSS__c" || fields["Style__c"].FileType != "scss" {
		t.Fatalf("unexpected compiled spec %+v", fields["Style__c"])
	}
	if _, ok := defs.Fields("Product2", "Missing"); ok {
		t.Fatal("expected missing section")
	}
}

func TestOverrideShadowsWithoutMutatingBase(t *testing.T) {
	base := mustParse(t, testDefinition)
	over, err := base.WithOverride([]byte(`
DataPacks:
  Product2:
    SupportParallel: true
    Product2:
      Fields:
        Extra__c: html
`))
	if err != nil {
		t.Fatalf("WithOverride: %v", err)
	}
	if !over.AllowParallel("Product2") {
		t.Fatal("override should win")
	}
	if base.AllowParallel("Product2") {
		t.Fatal("base must be unchanged")
	}
	fields, _ := over.Fields("Product2", "Product2")
	if _, ok := fields[schema.NamespacePlaceholder+"Extra__c"]; !ok {
		t.Fatalf("expected namespaced override field, got %v", fields)
	}
	if _, ok := fields["Meta__c"]; !ok {
		t.Fatal("base fields should remain visible through the override")
	}
}

func TestNamespaced(t *testing.T) {
	tests := map[string]string{
		"Name":                          "Name",
		"Product__c":                    "%vlocity_namespace%__Product__c",
		"%vlocity_namespace%__Thing__c": "%vlocity_namespace%__Thing__c",
		"Parent__r.Code__c":             "%vlocity_namespace%__Parent__r.%vlocity_namespace%__Code__c",
		"RecordType.DeveloperName":      "RecordType.DeveloperName",
		"__c":                           "__c",
	}
	for in, want := range tests {
		if got := schema.Namespaced(in); got != want {
			t.Fatalf("Namespaced(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGuaranteedParentKeys(t *testing.T) {
	defs := mustParse(t, testDefinition)
	if !defs.IsGuaranteedParentKey("RecordType/Product2/Product") || defs.IsGuaranteedParentKey("Product2/X") {
		t.Fatal("unexpected guaranteed parent result")
	}
}

func TestDefaultDefinitionLoads(t *testing.T) {
	defs, err := schema.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if !defs.IsSoloDeploy("OmniScript") {
		t.Fatal("expected OmniScript to be solo-deploy")
	}
	fields, ok := defs.Fields("VlocityUITemplate", schema.NamespacePlaceholder+"VlocityUITemplate__c")
	if !ok || fields[schema.NamespacePlaceholder+"Sass__c"].Kind != schema.KindCompiled {
		t.Fatalf("unexpected template fields %v", fields)
	}
}

func TestInvalidFieldSpecFails(t *testing.T) {
	_, err := schema.Parse([]byte(`
DataPacks:
  T:
    S:
      Fields:
        Bad: [1, 2]
`))
	if err == nil {
		t.Fatal("expected error for sequence field spec")
	}
}
