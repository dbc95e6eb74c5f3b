package source

// Activities are not made DISTINCT: repeated measurements with equal values
// are separate activities and must all count towards mean and median.
const activitiesSQL = `
SELECT act.pchembl_value,
    md.molregno, md.chembl_id, md.pref_name,
    md.max_phase, md.first_approval, md.usan_year, md.black_box_warning,
    md.prodrug, md.oral, md.parenteral, md.topical,
    ass.assay_type, ass.tid,
    vs.mutation,
    td.chembl_id, td.pref_name, td.target_type, td.organism,
    docs.year
FROM activities act
INNER JOIN molecule_hierarchy mh
    ON act.molregno = mh.molregno
INNER JOIN molecule_dictionary md
    ON mh.parent_molregno = md.molregno
INNER JOIN assays ass
    ON act.assay_id = ass.assay_id
LEFT JOIN variant_sequences vs
    ON ass.variant_id = vs.variant_id
INNER JOIN target_dictionary td
    ON ass.tid = td.tid
LEFT JOIN docs
    ON act.doc_id = docs.doc_id
WHERE act.pchembl_value IS NOT NULL
    AND act.potential_duplicate = 0
    AND act.standard_relation = '='
    AND act.data_validity_comment IS NULL
    AND td.tid <> 22226
    AND td.target_type LIKE '%PROTEIN%'
`

const literatureFilter = `    AND docs.src_id = 1
`

const knownInteractionsSQL = `
SELECT DISTINCT mh.parent_molregno, dm.tid
FROM drug_mechanism dm
INNER JOIN molecule_hierarchy mh
    ON dm.molregno = mh.molregno
INNER JOIN molecule_dictionary md
    ON mh.parent_molregno = md.molregno
WHERE dm.disease_efficacy = 1
    AND dm.tid IS NOT NULL
`

const targetRelationsSQL = `
SELECT DISTINCT tr.tid, tr.relationship, tr.related_tid,
    td1.target_type, td2.target_type
FROM target_relations tr
INNER JOIN target_dictionary td1
    ON tr.tid = td1.tid
INNER JOIN target_dictionary td2
    ON tr.related_tid = td2.tid
`

const compoundsSQL = `
SELECT md.molregno, md.chembl_id, md.pref_name,
    md.max_phase, md.first_approval, md.usan_year, md.black_box_warning,
    md.prodrug, md.oral, md.parenteral, md.topical
FROM molecule_dictionary md
`

const targetsSQL = `
SELECT td.tid, td.chembl_id, td.pref_name, td.target_type, td.organism
FROM target_dictionary td
`

const firstPublicationsSQL = `
SELECT mh.parent_molregno, MIN(docs.year)
FROM docs
LEFT JOIN compound_records cr
    ON docs.doc_id = cr.doc_id
INNER JOIN molecule_hierarchy mh
    ON cr.molregno = mh.molregno
WHERE docs.year IS NOT NULL
`

const firstPublicationsGroupBy = `GROUP BY mh.parent_molregno
`

const compoundPropertiesSQL = `
SELECT DISTINCT mh.parent_molregno,
    cp.mw_freebase, cp.alogp, cp.hba, cp.hbd, cp.psa, cp.rtb, cp.ro3_pass, cp.num_ro5_violations,
    cp.cx_most_apka, cp.cx_most_bpka, cp.cx_logp, cp.cx_logd, cp.molecular_species, cp.full_mwt,
    cp.aromatic_rings, cp.heavy_atoms, cp.qed_weighted, cp.mw_monoisotopic, cp.full_molformula,
    cp.hba_lipinski, cp.hbd_lipinski, cp.num_lipinski_ro5_violations,
    struct.standard_inchi, struct.standard_inchi_key, struct.canonical_smiles
FROM compound_properties cp
INNER JOIN molecule_hierarchy mh
    ON cp.molregno = mh.parent_molregno
INNER JOIN compound_structures struct
    ON mh.parent_molregno = struct.molregno
`

const atcSQL = `
SELECT DISTINCT mh.parent_molregno, atc.level1, atc.level1_description
FROM atc_classification atc
INNER JOIN molecule_atc_classification matc
    ON atc.level5 = matc.level5
INNER JOIN molecule_hierarchy mh
    ON matc.molregno = mh.molregno
`

const hierarchySQL = `
SELECT DISTINCT mh.molregno, mh.parent_molregno
FROM molecule_hierarchy mh
`

const parentStructuresSQL = `
SELECT DISTINCT mh.parent_molregno, struct.canonical_smiles
FROM molecule_hierarchy mh
INNER JOIN compound_structures struct
    ON mh.parent_molregno = struct.molregno
`

const componentClassesSQL = `
SELECT DISTINCT tc.tid, pc.protein_class_id
FROM protein_classification pc
INNER JOIN component_class cc
    ON pc.protein_class_id = cc.protein_class_id
INNER JOIN component_sequences cs
    ON cc.component_id = cs.component_id
INNER JOIN target_components tc
    ON cs.component_id = tc.component_id
`

// Names accumulate the pref names from the root, separated by '|'.
const proteinClassHierarchySQL = `
WITH RECURSIVE pc_hierarchy AS (
    SELECT protein_class_id,
        parent_id,
        class_level,
        pref_name AS names
    FROM protein_classification
    WHERE parent_id IS NULL

    UNION ALL

    SELECT pc.protein_class_id,
        pc.parent_id,
        pc.class_level,
        pc_hierarchy.names || '|' || pc.pref_name
    FROM protein_classification pc, pc_hierarchy
    WHERE pc.parent_id = pc_hierarchy.protein_class_id
)
SELECT protein_class_id, parent_id, class_level, names
FROM pc_hierarchy
`
